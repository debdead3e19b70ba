package controller

import (
	"context"
	"net/http"
	"sync"

	"airwatch-server/internal/location"
	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/render/heatmap"
	"airwatch-server/internal/render/projection"
	"airwatch-server/internal/render/trend"
)

// AirQualityService is what the controller needs from the service layer.
type AirQualityService interface {
	Current() types.Current
	Location() location.Fix
	Nearby(ctx context.Context) ([]types.NearbyStation, error)
	History() []trend.Sample
	Recommendations(aqi float64) []types.Recommendation
	UpdateLocation(ctx context.Context, p projection.GeoPoint) (location.Fix, error)
	ResetLocation(ctx context.Context) location.Fix
}

// FrameOptions are the default frame sizes used by the dashboard.
type FrameOptions struct {
	MapWidth    int
	MapHeight   int
	ChartWidth  int
	ChartHeight int
	HistorySize int
}

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	service    AirQualityService
	frames     FrameOptions
	compositor heatmap.Compositor
	chart      trend.Chart

	mu        sync.Mutex
	lastFrame map[string][]byte
}

func NewAirQualityController(service AirQualityService, frames FrameOptions) AirQualityController {
	return &airQualityControllerImpl{
		service:   service,
		frames:    frames,
		lastFrame: make(map[string][]byte),
	}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/current", c.handleCurrentPartial)
	mux.HandleFunc("GET /map.png", c.handleMapFrame)
	mux.HandleFunc("GET /history.png", c.handleHistoryFrame)
	mux.HandleFunc("GET /history/chart", c.handleHistoryChart)

	mux.HandleFunc("GET /api/v1/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1/current", c.handleCurrent)
	mux.HandleFunc("GET /api/v1/history", c.handleHistory)
	mux.HandleFunc("GET /api/v1/recommendations", c.handleRecommendations)
	mux.HandleFunc("GET /api/v1/map/layout", c.handleMapLayout)
	mux.HandleFunc("POST /api/v1/location", c.handleUpdateLocation)
	mux.HandleFunc("DELETE /api/v1/location", c.handleResetLocation)
}
