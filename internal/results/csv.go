package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"droplet-analyzer/internal/metrics"
)

// Columns is the fixed CSV column order. The first twelve columns are the
// stable core; the supplemental shape descriptors follow and are never
// interleaved.
func Columns() []string {
	return []string{
		"label", "ink_key", "ink_type", "replicate",
		"pixel_area", "physical_area_mm2",
		"mean_intensity", "median_intensity", "std_intensity",
		"eccentricity", "halo_eccentricity", "unparsed_label",
		"perimeter_px", "circularity", "convexity",
	}
}

// WriteCSV renders the result set, one row per record, in insertion
// order. Unavailable values render as empty cells; a measured empty halo
// renders as the literal no_halo.
func (rs *ResultSet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return err
	}
	for _, row := range rs.Rows() {
		if err := cw.Write(row.csvFields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the result set to path, creating or truncating it.
func (rs *ResultSet) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := rs.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (row Row) csvFields() []string {
	m := row.Metrics
	fields := make([]string, 0, len(Columns()))

	fields = append(fields, row.Label)
	if row.Unparsed {
		fields = append(fields, "", "", "")
	} else {
		fields = append(fields,
			strconv.Itoa(row.InkKey), row.InkType, strconv.Itoa(row.Replicate))
	}

	fields = append(fields, strconv.Itoa(m.PixelArea))
	fields = append(fields, floatField(m.PhysicalAreaMM2))

	if m.Intensity != nil {
		fields = append(fields,
			formatFloat(m.Intensity.Mean),
			formatFloat(m.Intensity.Median),
			formatFloat(m.Intensity.Std))
	} else {
		fields = append(fields, "", "", "")
	}

	fields = append(fields, floatField(m.Eccentricity))
	fields = append(fields, haloField(m.Halo))
	fields = append(fields, strconv.FormatBool(row.Unparsed))

	if m.PerimeterPx != nil {
		fields = append(fields, strconv.Itoa(*m.PerimeterPx))
	} else {
		fields = append(fields, "")
	}
	fields = append(fields, floatField(m.Circularity))
	fields = append(fields, floatField(m.Convexity))

	return fields
}

func haloField(h *metrics.HaloStats) string {
	if h == nil {
		return ""
	}
	if h.None() {
		return "no_halo"
	}
	return floatField(h.Eccentricity)
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
