// Package pipeline drives one inventory run: every enumerated file is
// hashed, probed for metadata and rendered into the report, and geotagged
// files additionally land in the map document.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forensio/imageinv/internal/exifmeta"
	"github.com/forensio/imageinv/internal/geomap"
	"github.com/forensio/imageinv/internal/gps"
	"github.com/forensio/imageinv/internal/models"
	"github.com/forensio/imageinv/internal/record"
	"github.com/forensio/imageinv/internal/report"
	"github.com/forensio/imageinv/pkg/logger"
)

// Hasher digests one file.
type Hasher interface {
	Compute(path string) (models.HashTriple, error)
}

// Extractor reads the metadata set and GPS tag block of one file.
type Extractor interface {
	Extract(ref models.ImageFileRef) (models.RawMetadataSet, gps.TagBlock, error)
}

// Config holds the per-run settings.
type Config struct {
	Concurrency int
	ReportPath  string
	MapPath     string
	MapTitle    string
}

// Summary is the user-visible outcome of a run.
type Summary struct {
	RunID               string
	Processed           int
	Geotagged           int
	MetadataUnavailable int
	GPSDecodeFailed     int
	HashFailed          int
}

type state int

const (
	stateIdle state = iota
	stateInitialized
	stateProcessing
	stateFinalized
)

// result is the outcome for one file. Workers fill results by index so the
// writers see enumeration order, not completion order.
type result struct {
	rec        models.ImageRecord
	hashFailed bool
	metaSoft   bool
	gpsFailed  bool
}

type Pipeline struct {
	cfg       Config
	hasher    Hasher
	extractor Extractor
	log       logger.Logger
	state     state
}

func New(cfg Config, hasher Hasher, extractor Extractor, log logger.Logger) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MapTitle == "" {
		cfg.MapTitle = "Image Inventory"
	}
	return &Pipeline{
		cfg:       cfg,
		hasher:    hasher,
		extractor: extractor,
		log:       log.Named("pipeline"),
		state:     stateIdle,
	}
}

// Run processes files in order and produces both outputs.
//
// Per-file failures are logged and recovered with fallback field values; a
// single bad file never aborts the run. Failure to open or close either
// output is fatal. Cancelling ctx stops dispatching new files, lets
// in-flight files finish and finalizes with what completed.
func (p *Pipeline) Run(ctx context.Context, files []models.ImageFileRef) (*Summary, error) {
	if p.state != stateIdle {
		return nil, errors.New("pipeline already ran")
	}

	summary := &Summary{RunID: uuid.NewString()}
	log := p.log.With(logger.String("run_id", summary.RunID))

	rep, err := report.Open(p.cfg.ReportPath)
	if err != nil {
		return nil, err
	}
	km, err := geomap.Open(p.cfg.MapPath, p.cfg.MapTitle)
	if err != nil {
		rep.Close()
		return nil, err
	}
	p.state = stateInitialized

	p.state = stateProcessing
	log.Info("processing started",
		logger.Int("files", len(files)),
		logger.Int("concurrency", p.cfg.Concurrency),
	)

	results := make([]result, len(files))
	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)

	dispatched := 0
	for i, ref := range files {
		if ctx.Err() != nil {
			log.Warn("cancellation requested, draining in-flight files",
				logger.Int("remaining", len(files)-i),
			)
			break
		}
		dispatched++
		i, ref := i, ref
		g.Go(func() error {
			results[i] = p.processOne(log, ref)
			return nil
		})
	}
	_ = g.Wait()

	writeErr := p.collect(log, rep, km, results[:dispatched], summary)

	repErr := rep.Close()
	kmErr := km.Close()
	p.state = stateFinalized

	if writeErr != nil {
		return summary, writeErr
	}
	if repErr != nil {
		return summary, repErr
	}
	if kmErr != nil {
		return summary, kmErr
	}

	log.Info("run finalized",
		logger.Int("processed", summary.Processed),
		logger.Int("geotagged", summary.Geotagged),
		logger.Int("metadata_unavailable", summary.MetadataUnavailable),
		logger.Int("gps_decode_failed", summary.GPSDecodeFailed),
		logger.Int("hash_failed", summary.HashFailed),
	)
	return summary, nil
}

// processOne computes everything for a single file. All state is local to
// the call, so nothing leaks between files.
func (p *Pipeline) processOne(log logger.Logger, ref models.ImageFileRef) result {
	var res result

	hashes, err := p.hasher.Compute(ref.Path)
	if err != nil {
		log.Warn("hashing failed",
			logger.String("path", ref.Path),
			logger.Error(err),
		)
		res.hashFailed = true
	}

	meta, block, err := p.extractor.Extract(ref)
	switch {
	case err == nil:
	case errors.Is(err, exifmeta.ErrMetadataUnavailable):
		res.metaSoft = true
		log.Info("metadata unavailable, keeping filesystem attributes",
			logger.String("path", ref.Path),
		)
	default:
		res.metaSoft = true
		log.Warn("metadata extraction failed",
			logger.String("path", ref.Path),
			logger.Error(err),
		)
	}

	coord := models.NoGPS()
	if block != nil {
		c, err := gps.Decode(block)
		if err != nil {
			// The file is confirmed geotagged but the payload is
			// unusable: keep HasGPS with zeroed coordinates.
			res.gpsFailed = true
			coord = models.GeoCoordinate{HasGPS: true, AboveSeaLevel: true}
			log.Warn("gps data present but undecodable",
				logger.String("path", ref.Path),
				logger.Error(err),
			)
		} else {
			coord = c
		}
	}

	res.rec = record.Build(ref, meta, hashes, coord)
	return res
}

// collect hands the ordered results to the two writers. Only this method
// touches the writers.
func (p *Pipeline) collect(log logger.Logger, rep *report.Writer, km *geomap.Writer, results []result, summary *Summary) error {
	for _, res := range results {
		if err := rep.Append(res.rec); err != nil {
			return err
		}
		summary.Processed++
		if res.hashFailed {
			summary.HashFailed++
		}
		if res.metaSoft {
			summary.MetadataUnavailable++
		}
		if res.gpsFailed {
			summary.GPSDecodeFailed++
		}

		geo := res.rec.Geo
		if !geo.HasGPS || res.gpsFailed {
			continue
		}
		err := km.AppendPlacemark(
			res.rec.Ref.Name,
			geomap.Describe(res.rec),
			geo.Longitude,
			geo.Latitude,
			geo.Altitude,
		)
		if err != nil {
			return err
		}
		summary.Geotagged++
	}
	log.Debug("results collected", logger.Int("rows", len(results)))
	return nil
}
