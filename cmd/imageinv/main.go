package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/forensio/imageinv/config"
	"github.com/forensio/imageinv/internal/exifmeta"
	"github.com/forensio/imageinv/internal/hash"
	"github.com/forensio/imageinv/internal/pipeline"
	"github.com/forensio/imageinv/internal/scan"
	"github.com/forensio/imageinv/pkg/logger"
	"github.com/forensio/imageinv/pkg/storage"
)

func main() {
	var (
		srcFlag    = flag.String("src", "", "directory or zip archive of images to inventory")
		reportFlag = flag.String("report", "", "report output path (default next to the source)")
		mapFlag    = flag.String("kml", "", "map output path (default next to the source)")
		configFlag = flag.String("config", "", "optional yaml config file")
		concFlag   = flag.Int("concurrency", 0, "number of files processed in parallel")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *srcFlag != "" {
		cfg.Source = *srcFlag
	}
	if *reportFlag != "" {
		cfg.ReportPath = *reportFlag
	}
	if *mapFlag != "" {
		cfg.MapPath = *mapFlag
	}
	if *concFlag > 0 {
		cfg.Concurrency = *concFlag
	}
	if cfg.Source == "" {
		fmt.Fprintln(os.Stderr, "no source given: pass -src or set IMAGEINV_SOURCE")
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.FromConfig(&cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("run failed", logger.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func run(cfg *config.Config, log logger.Logger) error {
	reportPath, mapPath, err := resolveOutputs(cfg)
	if err != nil {
		return fmt.Errorf("prepare output locations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, cleanup, err := scan.New(log).Enumerate(cfg.Source)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("enumerate source: %w", err)
	}

	p := pipeline.New(
		pipeline.Config{
			Concurrency: cfg.Concurrency,
			ReportPath:  reportPath,
			MapPath:     mapPath,
			MapTitle:    mapTitle(cfg),
		},
		hash.New(),
		exifmeta.New(log),
		log,
	)

	summary, err := p.Run(ctx, files)
	if err != nil {
		return err
	}

	if cfg.Archive.Enabled {
		archiveOutputs(ctx, cfg, log, reportPath, mapPath)
	}

	printSummary(summary, reportPath, mapPath)
	return nil
}

// resolveOutputs anchors relative output paths next to the source and
// makes sure their parent directories exist before the writers open them.
func resolveOutputs(cfg *config.Config) (string, string, error) {
	srcDir := cfg.Source
	if fi, err := os.Stat(cfg.Source); err != nil || !fi.IsDir() {
		srcDir = filepath.Dir(cfg.Source)
	}

	anchor := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(srcDir, p)
	}

	reportPath := anchor(cfg.ReportPath)
	mapPath := anchor(cfg.MapPath)
	for _, p := range []string{reportPath, mapPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", "", err
		}
	}
	return reportPath, mapPath, nil
}

func mapTitle(cfg *config.Config) string {
	if cfg.MapTitle != "" {
		return cfg.MapTitle
	}
	base := filepath.Base(filepath.Clean(cfg.Source))
	if base == "." || base == string(os.PathSeparator) {
		return "Image Inventory"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// archiveOutputs is best effort: the local files are the primary artifact
// and an upload failure never fails the run.
func archiveOutputs(ctx context.Context, cfg *config.Config, log logger.Logger, paths ...string) {
	uploader, err := storage.New(&cfg.Archive, log)
	if err != nil {
		log.Warn("archival disabled, uploader unavailable", logger.Error(err))
		return
	}
	for _, p := range paths {
		if _, err := storage.StoreFile(ctx, uploader, p); err != nil {
			log.Warn("archival upload failed",
				logger.String("path", p),
				logger.Error(err),
			)
		}
	}
}

func printSummary(s *pipeline.Summary, reportPath, mapPath string) {
	color.New(color.Bold).Println("Inventory complete")
	fmt.Printf("  run id:                %s\n", s.RunID)
	color.Green("  processed:             %d", s.Processed)
	color.Green("  geotagged:             %d", s.Geotagged)
	countLine := func(label string, n int) {
		line := fmt.Sprintf("  %-22s %d", label+":", n)
		if n > 0 {
			color.Yellow(line)
		} else {
			fmt.Println(line)
		}
	}
	countLine("metadata unavailable", s.MetadataUnavailable)
	countLine("gps decode failed", s.GPSDecodeFailed)
	countLine("hash failed", s.HashFailed)
	fmt.Printf("  report:                %s\n", reportPath)
	fmt.Printf("  map:                   %s\n", mapPath)
}
