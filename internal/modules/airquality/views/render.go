package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"airwatch-server/internal/modules/airquality/types"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Tests use it with broken file systems.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup; if it
// returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// PollutantView is one cell of the pollutant grid.
type PollutantView struct {
	Label string
	Value string
	Unit  string
}

// CurrentData is the view model for the current conditions partial.
type CurrentData struct {
	types.Current
	Pollutants      []PollutantView
	Recommendations []types.Recommendation
}

type DashboardData struct {
	Title       string
	Current     CurrentData
	Stations    []types.NearbyStation
	HistorySize int
	MapWidth    int
	MapHeight   int
	ChartWidth  int
	ChartHeight int
}

// NewCurrentData builds the partial's view model, with the pollutant grid in
// display order.
func NewCurrentData(cur types.Current, recs []types.Recommendation) CurrentData {
	data := CurrentData{Current: cur, Recommendations: recs}
	if cur.Reading == nil {
		return data
	}
	p := cur.Reading.Pollutants
	for _, row := range []struct {
		label string
		v     *float64
		unit  string
	}{
		{"PM2.5", p.PM25, "µg/m³"},
		{"PM10", p.PM10, "µg/m³"},
		{"O₃", p.O3, "µg/m³"},
		{"NO₂", p.NO2, "µg/m³"},
		{"SO₂", p.SO2, "µg/m³"},
		{"CO", p.CO, "ppb"},
	} {
		value := "--"
		if row.v != nil {
			value = formatValue(*row.v)
		}
		data.Pollutants = append(data.Pollutants, PollutantView{Label: row.label, Value: value, Unit: row.unit})
	}
	return data
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderCurrentPartial executes only the current conditions partial, for
// HTMX refresh.
func RenderCurrentPartial(w io.Writer, data *CurrentData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/current.html", data)
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
