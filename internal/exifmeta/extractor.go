// Package exifmeta assembles the raw metadata set of one file from its
// filesystem attributes and its embedded image properties.
package exifmeta

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/forensio/imageinv/internal/fsattr"
	"github.com/forensio/imageinv/internal/gps"
	"github.com/forensio/imageinv/internal/models"
	"github.com/forensio/imageinv/pkg/logger"
)

// ErrMetadataUnavailable marks a file the image codec could not open. The
// extractor still returns the filesystem-only metadata set alongside it.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

const timeLayout = "2006-01-02 15:04:05"

// Extractor maps filesystem and embedded attributes onto the fixed
// metadata keys.
type Extractor struct {
	log  logger.Logger
	open OpenFunc
}

func New(log logger.Logger) *Extractor {
	return &Extractor{log: log.Named("exifmeta"), open: OpenEXIF}
}

// NewWithProvider builds an extractor over a custom metadata provider.
func NewWithProvider(log logger.Logger, open OpenFunc) *Extractor {
	return &Extractor{log: log.Named("exifmeta"), open: open}
}

// Extract returns the metadata set for ref and, when the image decodes, the
// raw GPS tag block bound to the same file.
//
// A file the codec cannot recognize yields the filesystem-only set, a nil
// tag block and ErrMetadataUnavailable; only a failed stat is a hard error.
func (e *Extractor) Extract(ref models.ImageFileRef) (models.RawMetadataSet, gps.TagBlock, error) {
	meta, err := e.filesystemSet(ref)
	if err != nil {
		return nil, nil, err
	}

	provider, err := e.open(ref.Path)
	if err != nil {
		e.log.Debug("embedded metadata not readable",
			logger.String("path", ref.Path),
			logger.Error(err),
		)
		return meta, nil, fmt.Errorf("%s: %w", ref.Path, ErrMetadataUnavailable)
	}

	e.embeddedSet(ref, provider, meta)

	block, ok := provider.GPS()
	if !ok {
		return meta, nil, nil
	}
	return meta, block, nil
}

func (e *Extractor) filesystemSet(ref models.ImageFileRef) (models.RawMetadataSet, error) {
	fi, err := os.Stat(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", ref.Path, err)
	}

	times, owner := fsattr.Stat(fi)

	meta := models.RawMetadataSet{
		models.MetaName:         ref.Name,
		models.MetaSize:         strconv.FormatInt(fi.Size(), 10),
		models.MetaDateCreated:  times.Created.Format(timeLayout),
		models.MetaDateAccessed: times.Accessed.Format(timeLayout),
		models.MetaDateModified: times.Modified.Format(timeLayout),
		models.MetaAttributes:   fi.Mode().String(),
		models.MetaURL:          "file://" + filepath.ToSlash(ref.Path),
		models.MetaOwner:        owner,
		models.MetaFolderPath:   filepath.Dir(ref.Path),
	}
	return meta, nil
}

func (e *Extractor) embeddedSet(ref models.ImageFileRef, provider Provider, meta models.RawMetadataSet) {
	if v, ok := provider.CameraMake(); ok {
		meta[models.MetaCameraMake] = v
	}
	if v, ok := provider.CameraModel(); ok {
		meta[models.MetaCameraModel] = v
	}
	if t, ok := provider.DateTaken(); ok {
		meta[models.MetaDateTaken] = t.Format(timeLayout)
	}
	if w, h, ok := provider.Dimensions(); ok {
		meta[models.MetaDimensions] = formatDimensions(w, h)
	} else if w, h, ok := decodeDimensions(ref.Path); ok {
		meta[models.MetaDimensions] = formatDimensions(w, h)
	}
	if v, ok := provider.Orientation(); ok {
		meta[models.MetaOrientation] = strconv.Itoa(v)
	}
	if v, ok := provider.Title(); ok {
		meta[models.MetaTitle] = v
	}
	if v, ok := provider.Subject(); ok {
		meta[models.MetaSubject] = v
	}
	if v, ok := provider.Description(); ok {
		meta[models.MetaFileDescription] = v
	}
	if v, ok := provider.Location(); ok {
		meta[models.MetaLocation] = v
	}
	if keywords, ok := provider.Keywords(); ok {
		meta[models.MetaTags] = strings.Join(keywords, "; ")
		meta[models.MetaKeyword1] = keywords[0]
		if len(keywords) > 1 {
			meta[models.MetaKeyword2] = keywords[1]
		}
	}
}

func formatDimensions(w, h int) string {
	return strconv.Itoa(w) + " x " + strconv.Itoa(h)
}

// decodeDimensions reads just the image header when EXIF has no pixel
// dimension tags.
func decodeDimensions(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
