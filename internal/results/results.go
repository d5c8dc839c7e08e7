// Package results assembles per-droplet metric records into an ordered,
// exportable result set. Labels are parsed here; records whose labels do
// not follow the grammar are kept and flagged, never dropped.
package results

import (
	"sync"

	"droplet-analyzer/internal/metrics"
)

// Row pairs one metric record with its parsed label. When Unparsed is
// true the label did not follow the grammar and the key, type, and
// replicate fields are zero.
type Row struct {
	Label     string `json:"label"`
	InkKey    int    `json:"ink_key,omitempty"`
	InkType   string `json:"ink_type,omitempty"`
	Replicate int    `json:"replicate,omitempty"`
	Unparsed  bool   `json:"unparsed_label"`

	Metrics *metrics.MetricRecord `json:"metrics"`
}

// ResultSet is an append-only sequence of rows in insertion order.
// Append is safe for concurrent use.
type ResultSet struct {
	mu   sync.Mutex
	rows []Row
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Append parses the record's label and adds a row. rec must be non-nil.
func (rs *ResultSet) Append(rec *metrics.MetricRecord) {
	row := Row{Label: rec.Label, Unparsed: true, Metrics: rec}
	if parts, ok := ParseLabel(rec.Label); ok {
		row.InkKey = parts.InkKey
		row.InkType = parts.InkType
		row.Replicate = parts.Replicate
		row.Unparsed = false
	}

	rs.mu.Lock()
	rs.rows = append(rs.rows, row)
	rs.mu.Unlock()
}

// Rows returns a copy of the rows in insertion order.
func (rs *ResultSet) Rows() []Row {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]Row, len(rs.rows))
	copy(out, rs.rows)
	return out
}

// Len reports the number of rows.
func (rs *ResultSet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.rows)
}

// Merge concatenates result sets into a new set, preserving argument
// order and each set's internal order. Nil sets are skipped.
func Merge(sets ...*ResultSet) *ResultSet {
	merged := NewResultSet()
	for _, s := range sets {
		if s == nil {
			continue
		}
		merged.rows = append(merged.rows, s.Rows()...)
	}
	return merged
}
