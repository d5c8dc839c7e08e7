// Package analysis drives the droplet measurement pipeline: calibrate,
// resolve, segment, measure, aggregate.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"droplet-analyzer/internal/config"
	apperrors "droplet-analyzer/internal/errors"
	"droplet-analyzer/internal/metrics"
	"droplet-analyzer/internal/render"
	"droplet-analyzer/internal/results"
	"droplet-analyzer/internal/roi"
	"droplet-analyzer/internal/scan"
	"droplet-analyzer/internal/segment"
	"droplet-analyzer/internal/session"
)

// Engine runs the analysis pipeline for one session at a time.
type Engine struct {
	cfg *config.Config
	log zerolog.Logger
}

// New creates an engine. A nil config means defaults.
func New(cfg *config.Config, log zerolog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{
		cfg: cfg,
		log: log.With().Str("component", "analysis").Logger(),
	}
}

// Summary reports what one run did.
type Summary struct {
	Measured   int     `json:"measured"`
	Skipped    int     `json:"skipped"`
	Calibrated bool    `json:"calibrated"`
	PxPerMM    float64 `json:"px_per_mm,omitempty"`
}

type job struct {
	index int
	roi   roi.ROI
}

// Run measures every droplet ROI in the session against the scan.
// Rulers are resolved first so every measurement sees the final
// calibration. Per-region failures are logged and skipped (or, for empty
// regions, recorded with unavailable metrics); only a cancelled context
// aborts the run. The result order matches the session's ROI order no
// matter how many workers run.
func (e *Engine) Run(ctx context.Context, sc *scan.Scan, sess *session.File) (*results.ResultSet, *Summary, error) {
	if sc == nil || sc.Gray == nil {
		return nil, nil, fmt.Errorf("analysis requires a loaded scan")
	}
	if sess == nil {
		return nil, nil, fmt.Errorf("analysis requires a session")
	}

	cal := e.calibrate(sc, sess)
	worklist := sess.Measurable()

	e.log.Info().
		Bool("calibrated", cal.Calibrated()).
		Float64("px_per_mm", cal.PxPerMM).
		Int("rois", len(worklist)).
		Msg("analysis started")

	// Workers write into disjoint slots; a nil slot marks a skipped
	// region. Appending slots in worklist order afterwards keeps the
	// output deterministic regardless of scheduling.
	slots := make([]*metrics.MetricRecord, len(worklist))

	workers := e.cfg.Engine.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if len(worklist) > 0 && workers > len(worklist) {
		workers = len(worklist)
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				slots[j.index] = e.measure(sc, j.roi, cal, sess.Analyses)
			}
		}()
	}

feed:
	for i, r := range worklist {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- job{index: i, roi: r}:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rs := results.NewResultSet()
	summary := &Summary{Calibrated: cal.Calibrated(), PxPerMM: cal.PxPerMM}
	for _, rec := range slots {
		if rec == nil {
			summary.Skipped++
			continue
		}
		rs.Append(rec)
		summary.Measured++
	}

	e.log.Info().
		Int("measured", summary.Measured).
		Int("skipped", summary.Skipped).
		Msg("analysis complete")

	return rs, summary, nil
}

// calibrate picks the pixel scale for the run. Precedence: ruler ROI
// (last valid one wins) over the session's explicit px_per_mm over the
// scan's resolution metadata.
func (e *Engine) calibrate(sc *scan.Scan, sess *session.File) roi.Calibration {
	cal := sc.Calibration()
	if c := sess.Calibration(); c.Calibrated() {
		cal = c
	}

	applied := false
	for _, r := range sess.Rulers() {
		rc, err := roi.RulerScale(r)
		if err != nil {
			e.warnSkip(r, err)
			continue
		}
		if applied {
			e.log.Warn().Str("roi", r.Label).
				Msg("multiple ruler regions, keeping the last")
		}
		cal = rc
		applied = true
	}
	return cal
}

// measure runs the per-region pipeline. A nil return means the region
// was skipped.
func (e *Engine) measure(sc *scan.Scan, r roi.ROI, cal roi.Calibration, analyses session.Analyses) *metrics.MetricRecord {
	mask, scale, err := roi.Resolve(sc.Bounds(), r, cal)
	if err != nil {
		e.warnSkip(r, err)
		return nil
	}

	fg, err := segment.Segment(sc.Gray, mask, e.segmentOptions())
	if err != nil {
		e.warnSkip(r, err)
		return nil
	}

	rec, err := metrics.Compute(r.Label, sc.Gray, mask, fg, scale, e.metricOptions(r, analyses))
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyMetric) {
			e.log.Warn().Str("roi", r.Label).
				Str("kind", string(apperrors.KindEmptyMetric)).
				Msg("region has no foreground, metrics unavailable")
			return rec
		}
		e.warnSkip(r, err)
		return nil
	}
	return rec
}

func (e *Engine) warnSkip(r roi.ROI, err error) {
	evt := e.log.Warn().Str("roi", r.Label)
	if kind, ok := apperrors.KindOf(err); ok {
		evt = evt.Str("kind", string(kind))
	}
	evt.Err(err).Msg("region skipped")
}

func (e *Engine) segmentOptions() segment.Options {
	return segment.Options{
		WindowRadius: e.cfg.Threshold.WindowRadius,
		Offset:       e.cfg.Threshold.Offset,
		UniformEps:   e.cfg.Threshold.UniformEps,
		MinPixels:    e.cfg.Threshold.MinPixels,
	}
}

func (e *Engine) metricOptions(r roi.ROI, analyses session.Analyses) metrics.Options {
	halo := analyses.HaloEnabled()
	if r.Halo != nil {
		halo = *r.Halo
	}
	return metrics.Options{
		Intensity:      analyses.IntensityEnabled(),
		Shape:          analyses.ShapeEnabled(),
		Halo:           halo,
		HaloBandRadius: e.cfg.Halo.BandRadius,
	}
}

// ResolveItems prepares overlay and heatmap inputs for every ROI in the
// session, using the same conventions as Run. Regions that fail to
// resolve or segment yield outline-only items.
func (e *Engine) ResolveItems(sc *scan.Scan, sess *session.File) []render.Item {
	cal := e.calibrate(sc, sess)
	items := make([]render.Item, 0, len(sess.ROIs))
	for _, r := range sess.ROIs {
		item := render.Item{ROI: r}
		if r.Measurable() {
			if mask, _, err := roi.Resolve(sc.Bounds(), r, cal); err == nil {
				item.Mask = mask
				if fg, err := segment.Segment(sc.Gray, mask, e.segmentOptions()); err == nil {
					item.Foreground = fg
				}
			}
		}
		items = append(items, item)
	}
	return items
}
