package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"airwatch-server/internal/location"
	"airwatch-server/internal/modules/airquality/service"
	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/modules/airquality/views"
	"airwatch-server/internal/render/projection"
	"airwatch-server/internal/utils"
)

func (c *airQualityControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	nearby, err := c.service.Nearby(r.Context())
	if err != nil {
		slog.Error("dashboard: get nearby stations failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	data := &views.DashboardData{
		Title:       "Dashboard",
		Current:     c.currentData(),
		Stations:    nearby,
		HistorySize: c.frames.HistorySize,
		MapWidth:    c.frames.MapWidth,
		MapHeight:   c.frames.MapHeight,
		ChartWidth:  c.frames.ChartWidth,
		ChartHeight: c.frames.ChartHeight,
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("dashboard: write response failed", "error", err)
	}
}

func (c *airQualityControllerImpl) handleCurrentPartial(w http.ResponseWriter, r *http.Request) {
	data := c.currentData()
	var buf bytes.Buffer
	if err := views.RenderCurrentPartial(&buf, &data); err != nil {
		slog.Error("current partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("current partial: write response failed", "error", err)
	}
}

func (c *airQualityControllerImpl) currentData() views.CurrentData {
	cur := c.service.Current()
	var recs []types.Recommendation
	if cur.Reading != nil {
		recs = c.service.Recommendations(cur.Reading.AQI)
	}
	return views.NewCurrentData(cur, recs)
}

func (c *airQualityControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	nearby, err := c.service.Nearby(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, nearby)
}

func (c *airQualityControllerImpl) handleCurrent(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.Current())
}

func (c *airQualityControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.History())
}

func (c *airQualityControllerImpl) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	aqi, ok, err := parseAQIQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		cur := c.service.Current()
		if cur.Reading == nil {
			utils.WriteJSON(w, http.StatusOK, []any{})
			return
		}
		aqi = cur.Reading.AQI
	}
	utils.WriteJSON(w, http.StatusOK, c.service.Recommendations(aqi))
}

func (c *airQualityControllerImpl) handleMapLayout(w http.ResponseWriter, r *http.Request) {
	width, height, err := parseFrameSize(r, c.frames.MapWidth, c.frames.MapHeight)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	current, err := c.mapCenter(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	nearby, err := c.service.Nearby(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	layout, err := c.compositor.Layout(current, service.MapReadings(nearby), float64(width), float64(height))
	if err != nil {
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, layout)
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (c *airQualityControllerImpl) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		utils.WriteError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	fix, err := c.service.UpdateLocation(r.Context(), projection.GeoPoint{Lat: *req.Lat, Lng: *req.Lng})
	switch {
	case errors.Is(err, location.ErrInvalid):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, location.ErrThrottled):
		utils.WriteError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusAccepted, fix)
}

// handleResetLocation is called by clients whose geolocation failed.
func (c *airQualityControllerImpl) handleResetLocation(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, c.service.ResetLocation(r.Context()))
}
