// Command droplet-analyzer measures ink droplet regions in a scanned
// test card and writes per-droplet metrics to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"droplet-analyzer/internal/analysis"
	"droplet-analyzer/internal/config"
	"droplet-analyzer/internal/plot"
	"droplet-analyzer/internal/render"
	"droplet-analyzer/internal/results"
	"droplet-analyzer/internal/roi"
	"droplet-analyzer/internal/scan"
	"droplet-analyzer/internal/session"
	"droplet-analyzer/internal/version"
)

func main() {
	var (
		sessionPath = flag.String("session", "", "path to session JSON file (required)")
		outPath     = flag.String("out", "", "CSV output path (default <session>_results.csv)")
		overlayPath = flag.String("overlay", "", "write an annotated overlay PNG to this path")
		heatmapDir  = flag.String("heatmaps", "", "write per-droplet intensity heatmaps into this directory")
		plotsDir    = flag.String("plots", "", "write summary plots into this directory")
		configPath  = flag.String("config", "", "path to YAML config file")
		workers     = flag.Int("workers", 0, "number of measurement workers (overrides config)")
		verbose     = flag.Bool("v", false, "enable debug logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).With().Timestamp().Logger()

	if *sessionPath == "" {
		flag.Usage()
		log.Fatal().Msg("-session is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *workers > 0 {
		cfg.Engine.Workers = *workers
	}

	sess, err := session.Load(*sessionPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load session")
	}
	if sess.ImagePath == "" {
		log.Fatal().Str("session", *sessionPath).Msg("session has no scan image")
	}

	sc, err := scan.Load(sess.ResolveImagePath(*sessionPath))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scan")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	eng := analysis.New(cfg, log)
	rs, summary, err := eng.Run(ctx, sc, sess)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	csvPath := *outPath
	if csvPath == "" {
		csvPath = session.DefaultResultsPath(*sessionPath)
	}
	if err := rs.WriteCSVFile(csvPath); err != nil {
		log.Fatal().Err(err).Msg("failed to write results")
	}
	log.Info().Str("path", csvPath).Int("rows", rs.Len()).Msg("results written")

	if *overlayPath != "" || *heatmapDir != "" {
		writeImages(log, eng, sc, sess, cfg, *overlayPath, *heatmapDir)
	}
	if *plotsDir != "" {
		writePlots(log, rs, *plotsDir)
	}

	log.Info().
		Int("measured", summary.Measured).
		Int("skipped", summary.Skipped).
		Bool("calibrated", summary.Calibrated).
		Float64("px_per_mm", summary.PxPerMM).
		Dur("elapsed", time.Since(start)).
		Msg("done")
}

func writeImages(log zerolog.Logger, eng *analysis.Engine, sc *scan.Scan,
	sess *session.File, cfg *config.Config, overlayPath, heatmapDir string) {

	items := eng.ResolveItems(sc, sess)

	if overlayPath != "" {
		if err := render.WritePNG(overlayPath, render.Overlay(sc.Gray, items)); err != nil {
			log.Fatal().Err(err).Msg("failed to write overlay")
		}
		log.Info().Str("path", overlayPath).Msg("overlay written")
	}

	if heatmapDir != "" {
		if err := os.MkdirAll(heatmapDir, 0755); err != nil {
			log.Fatal().Err(err).Msg("failed to create heatmap directory")
		}
		written := 0
		for i, item := range items {
			if item.Mask == nil || item.ROI.Kind == roi.KindRuler {
				continue
			}
			name := item.ROI.Label
			if name == "" {
				name = fmt.Sprintf("roi_%02d", i)
			}
			path := filepath.Join(heatmapDir, name+".png")
			hm := render.Heatmap(sc.Gray, item.Mask, cfg.Render.HeatmapPad)
			if err := render.WritePNG(path, hm); err != nil {
				log.Fatal().Err(err).Msg("failed to write heatmap")
			}
			written++
		}
		log.Info().Int("count", written).Str("dir", heatmapDir).Msg("heatmaps written")
	}
}

// writePlots renders summary charts. An unplottable result set (no
// intensity values, no parsed labels) is a warning, not a failure:
// the CSV is already on disk by this point.
func writePlots(log zerolog.Logger, rs *results.ResultSet, dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create plot directory")
	}

	histPath := filepath.Join(dir, "intensity_hist.png")
	if err := plot.IntensityHistogram(rs, histPath); err != nil {
		log.Warn().Err(err).Msg("skipping intensity histogram")
	} else {
		log.Info().Str("path", histPath).Msg("histogram written")
	}

	boxPath := filepath.Join(dir, "area_by_ink.png")
	if err := plot.AreaBoxPlot(rs, boxPath); err != nil {
		log.Warn().Err(err).Msg("skipping area box plot")
	} else {
		log.Info().Str("path", boxPath).Msg("box plot written")
	}
}
