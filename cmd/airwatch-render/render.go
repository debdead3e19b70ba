package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"airwatch-server/internal/location"
	"airwatch-server/internal/modules/airquality/service"
	"airwatch-server/internal/modules/airquality/types"
	"airwatch-server/internal/render/canvas"
	"airwatch-server/internal/render/heatmap"
	"airwatch-server/internal/render/projection"
	"airwatch-server/internal/render/trend"
)

// scenario is the flag set shared by the subcommands.
type scenario struct {
	Seed   int64
	Center projection.GeoPoint
	Width  int
	Height int
	Out    string
}

func scenarioFrom(v *viper.Viper) (scenario, error) {
	sc := scenario{
		Seed:   v.GetInt64("seed"),
		Center: projection.GeoPoint{Lat: v.GetFloat64("lat"), Lng: v.GetFloat64("lng")},
		Width:  v.GetInt("width"),
		Height: v.GetInt("height"),
		Out:    v.GetString("out"),
	}
	if sc.Out == "" {
		return sc, errors.New("--out is required")
	}
	if err := location.Validate(sc.Center); err != nil {
		return sc, err
	}
	if sc.Width < 1 || sc.Height < 1 {
		return sc, fmt.Errorf("frame size %dx%d must be positive", sc.Width, sc.Height)
	}
	return sc, nil
}

func newMapCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render the nearby station map",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenarioFrom(v)
			if err != nil {
				return err
			}
			now := time.Now()
			stations := simulateStations(sc, v.GetInt("stations"), now)
			return writeFrame(sc, func(s canvas.Surface) error {
				return heatmap.Compositor{}.Render(s, sc.Center, stations, now)
			})
		},
	}
	cmd.Flags().Int("stations", 5, "Number of simulated stations")
	_ = v.BindPFlag("stations", cmd.Flags().Lookup("stations"))
	return cmd
}

func newTrendCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Render the AQI trend chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenarioFrom(v)
			if err != nil {
				return err
			}
			samples := simulateHistory(sc, v.GetInt("samples"), v.GetDuration("interval"), time.Now())
			chart := trend.Chart{}
			if v.GetBool("utc") {
				chart.Location = time.UTC
			}
			return writeFrame(sc, func(s canvas.Surface) error {
				return chart.Render(s, samples)
			})
		},
	}
	cmd.Flags().Int("samples", 24, "Number of history samples")
	cmd.Flags().Duration("interval", time.Hour, "Time between samples")
	cmd.Flags().Bool("utc", false, "Label the time axis in UTC")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

// simulateStations runs one simulator cycle and returns its stations as map
// readings, measured from the scenario centre.
func simulateStations(sc scenario, count int, now time.Time) []heatmap.StationReading {
	cycle := service.NewSimulator(sc.Seed, count).Generate(sc.Center, now)
	nearby := make([]types.NearbyStation, 0, len(cycle.Stations))
	for _, st := range cycle.Stations {
		nearby = append(nearby, types.NearbyStation{
			StationReading: st,
			DistanceKm:     service.Haversine(sc.Center.Lat, sc.Center.Lng, st.Lat, st.Lng),
		})
	}
	return service.MapReadings(nearby)
}

// simulateHistory returns n local samples spaced by interval, the last one
// at end.
func simulateHistory(sc scenario, n int, interval time.Duration, end time.Time) []trend.Sample {
	sim := service.NewSimulator(sc.Seed, 0)
	out := make([]trend.Sample, 0, max(n, 0))
	for i := 0; i < n; i++ {
		at := end.Add(-time.Duration(n-1-i) * interval)
		r := sim.Generate(sc.Center, at).Local
		out = append(out, trend.Sample{
			Timestamp:  r.Time.UnixMilli(),
			Value:      r.AQI,
			Pollutants: r.Pollutants.Map(),
		})
	}
	return out
}

func writeFrame(sc scenario, draw func(canvas.Surface) error) error {
	raster, err := canvas.NewRaster(sc.Width, sc.Height)
	if err != nil {
		return err
	}
	if err := draw(raster); err != nil {
		return err
	}
	if dir := filepath.Dir(sc.Out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(sc.Out)
	if err != nil {
		return err
	}
	if err := raster.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%dx%d)\n", sc.Out, sc.Width, sc.Height)
	return nil
}
