package service

import "airwatch-server/internal/modules/airquality/types"

// Recommendations returns the health advice for an AQI: one card for the
// severity level followed by one activity card.
func Recommendations(aqi float64) []types.Recommendation {
	var level types.Recommendation
	switch {
	case aqi <= 50:
		level = types.Recommendation{
			Type:        "good",
			Icon:        "🌟",
			Title:       "Excellent Air Quality",
			Description: "Perfect for all outdoor activities including jogging and cycling.",
		}
	case aqi <= 100:
		level = types.Recommendation{
			Type:        "moderate",
			Icon:        "⚠️",
			Title:       "Moderate Air Quality",
			Description: "Generally acceptable for most people. Sensitive individuals should consider limiting prolonged outdoor exertion.",
		}
	case aqi <= 150:
		level = types.Recommendation{
			Type:        "unhealthy-sensitive",
			Icon:        "🚨",
			Title:       "Unhealthy for Sensitive Groups",
			Description: "Children, elderly, and people with respiratory conditions should limit outdoor activities.",
		}
	default:
		level = types.Recommendation{
			Type:        "unhealthy",
			Icon:        "🔴",
			Title:       "Unhealthy Air Quality",
			Description: "Everyone should avoid prolonged outdoor exertion. Stay indoors when possible.",
		}
	}

	activity := types.Recommendation{
		Type:        "activity",
		Icon:        "🏠",
		Title:       "Indoor Activities",
		Description: "Consider indoor workouts or postpone outdoor exercise.",
	}
	if aqi <= 100 {
		activity.Icon = "🏃‍♂️"
		activity.Title = "Outdoor Exercise"
		activity.Description = "Good conditions for running, cycling, and outdoor sports."
	}
	return []types.Recommendation{level, activity}
}
