package controller

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"airwatch-server/internal/modules/airquality/service"
	"airwatch-server/internal/render/canvas"
	"airwatch-server/internal/render/colorramp"
	"airwatch-server/internal/render/projection"
	"airwatch-server/internal/render/trend"
	"airwatch-server/internal/utils"
)

func (c *airQualityControllerImpl) handleMapFrame(w http.ResponseWriter, r *http.Request) {
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
	c.serveFrame(w, fmt.Sprintf("map:%dx%d", width, height), func() ([]byte, error) {
		nearby, err := c.service.Nearby(r.Context())
		if err != nil {
			return nil, err
		}
		return encodeFrame(width, height, func(s canvas.Surface) error {
			return c.compositor.Render(s, current, service.MapReadings(nearby), time.Now())
		})
	})
}

func (c *airQualityControllerImpl) handleHistoryFrame(w http.ResponseWriter, r *http.Request) {
	width, height, err := parseFrameSize(r, c.frames.ChartWidth, c.frames.ChartHeight)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.serveFrame(w, fmt.Sprintf("history:%dx%d", width, height), func() ([]byte, error) {
		samples := c.service.History()
		return encodeFrame(width, height, func(s canvas.Surface) error {
			return c.chart.Render(s, samples)
		})
	})
}

// serveFrame renders a frame, falling back to the last good frame of the same
// key when rendering fails.
func (c *airQualityControllerImpl) serveFrame(w http.ResponseWriter, key string, render func() ([]byte, error)) {
	data, err := render()
	if err == nil {
		c.mu.Lock()
		c.lastFrame[key] = data
		c.mu.Unlock()
		utils.WritePNG(w, http.StatusOK, data)
		return
	}

	c.mu.Lock()
	last, ok := c.lastFrame[key]
	c.mu.Unlock()
	if !ok {
		slog.Error("frame render failed", "frame", key, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render frame")
		return
	}
	slog.Warn("frame render failed, serving last good frame", "frame", key, "error", err)
	w.Header().Set("X-Frame-Stale", "true")
	utils.WritePNG(w, http.StatusOK, last)
}

func encodeFrame(width, height int, draw func(canvas.Surface) error) ([]byte, error) {
	raster, err := canvas.NewRaster(width, height)
	if err != nil {
		return nil, err
	}
	if err := draw(raster); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mapCenter is the lat/lng query pair when given, the tracked location otherwise.
func (c *airQualityControllerImpl) mapCenter(r *http.Request) (projection.GeoPoint, error) {
	p, ok, err := parsePointQuery(r)
	if err != nil {
		return projection.GeoPoint{}, err
	}
	if ok {
		return p, nil
	}
	return c.service.Location().GeoPoint, nil
}

// handleHistoryChart serves the interactive variant of the trend chart.
func (c *airQualityControllerImpl) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	line := historyLineChart(c.service.History(), c.chart.Location)
	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		slog.Error("history chart render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("history chart: write response failed", "error", err)
	}
}

func historyLineChart(samples []trend.Sample, loc *time.Location) *charts.Line {
	if loc == nil {
		loc = time.Local
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "AirWatch history", Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    trend.Title,
			Subtitle: fmt.Sprintf("%d samples", len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         trend.AxisCaption,
			NameLocation: "middle",
			NameGap:      40,
			Min:          0,
		}),
	)

	xAxis := make([]string, 0, len(samples))
	aqi := make([]opts.LineData, 0, len(samples))
	pm25 := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		v := colorramp.Sanitize(s.Value)
		xAxis = append(xAxis, trend.FormatTime(s.Time().In(loc)))
		aqi = append(aqi, opts.LineData{Value: v, Name: colorramp.Level(v)})
		pm25 = append(pm25, opts.LineData{Value: s.Pollutants["pm25"]})
	}
	line.SetXAxis(xAxis).
		AddSeries("AQI", aqi).
		AddSeries("PM2.5", pm25)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}
