// Package plot renders summary figures for a result set.
package plot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"droplet-analyzer/internal/results"
)

// IntensityHistogram draws a 16-bin histogram of the mean foreground
// intensities and saves it to path (format from the extension). Rows
// without intensity statistics are skipped; an error is returned when
// nothing is plottable.
func IntensityHistogram(rs *results.ResultSet, path string) error {
	var values plotter.Values
	for _, row := range rs.Rows() {
		if row.Metrics == nil || row.Metrics.Intensity == nil {
			continue
		}
		values = append(values, row.Metrics.Intensity.Mean)
	}
	if len(values) == 0 {
		return fmt.Errorf("no rows with intensity statistics to plot")
	}

	p := plot.New()
	p.Title.Text = "Mean droplet intensity"
	p.X.Label.Text = "intensity"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(values, 16)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// AreaBoxPlot draws one box per ink over the droplet pixel areas, in
// first-seen order. Groups are labeled with the ink formulation when the
// key is known, the raw ink type otherwise. Unparsed rows are skipped.
func AreaBoxPlot(rs *results.ResultSet, path string) error {
	groups := map[string]plotter.Values{}
	var order []string
	for _, row := range rs.Rows() {
		if row.Unparsed || row.Metrics == nil {
			continue
		}
		name := results.InkDescription(row.InkKey)
		if name == "" {
			name = row.InkType
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], float64(row.Metrics.PixelArea))
	}
	if len(order) == 0 {
		return fmt.Errorf("no parsed rows to plot")
	}

	p := plot.New()
	p.Title.Text = "Droplet area by ink type"
	p.Y.Label.Text = "area (px)"

	for i, key := range order {
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), groups[key])
		if err != nil {
			return fmt.Errorf("failed to build box plot for %s: %w", key, err)
		}
		p.Add(box)
	}
	p.NominalX(order...)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
