// Package scan enumerates the candidate image files of a source directory
// or zip archive in a deterministic order.
package scan

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"

	"github.com/forensio/imageinv/internal/fsattr"
	"github.com/forensio/imageinv/internal/models"
	"github.com/forensio/imageinv/pkg/logger"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".heic": true,
	".webp": true,
}

// Enumerator discovers image files under a source path.
type Enumerator struct {
	log logger.Logger
}

func New(log logger.Logger) *Enumerator {
	return &Enumerator{log: log.Named("scan")}
}

// Enumerate walks src and returns the image files in lexical walk order,
// so repeated runs over the same tree produce identical output ordering.
// A ".zip" source is unpacked into a temp directory first; the returned
// cleanup func removes it and is safe to call in every case.
func (e *Enumerator) Enumerate(src string) ([]models.ImageFileRef, func(), error) {
	cleanup := func() {}

	root := src
	if strings.EqualFold(filepath.Ext(src), ".zip") {
		dir, err := os.MkdirTemp("", "imageinv-*")
		if err != nil {
			return nil, cleanup, fmt.Errorf("create staging dir: %w", err)
		}
		cleanup = func() { os.RemoveAll(dir) }
		if err := unzip(src, dir); err != nil {
			return nil, cleanup, err
		}
		e.log.Info("unpacked archive",
			logger.String("archive", src),
			logger.String("dir", dir),
		)
		root = dir
	}

	var refs []models.ImageFileRef
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ref, ok := e.candidate(path)
		if ok {
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("walk %s: %w", root, err)
	}

	e.log.Info("enumeration complete",
		logger.String("source", src),
		logger.Int("files", len(refs)),
	)
	return refs, cleanup, nil
}

// candidate accepts a file when both its extension and its sniffed content
// type look like an image. Extension alone lets renamed binaries through;
// content alone would read every file in the tree.
func (e *Enumerator) candidate(path string) (models.ImageFileRef, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return models.ImageFileRef{}, false
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil || !strings.HasPrefix(mt.String(), "image/") {
		e.log.Debug("skipping non-image candidate", logger.String("path", path))
		return models.ImageFileRef{}, false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fi, err := os.Stat(abs)
	if err != nil {
		e.log.Warn("candidate vanished during enumeration",
			logger.String("path", abs),
			logger.Error(err),
		)
		return models.ImageFileRef{}, false
	}
	times, _ := fsattr.Stat(fi)

	return models.ImageFileRef{
		Path:       abs,
		Name:       filepath.Base(abs),
		Extension:  ext,
		AccessedAt: times.Accessed,
		ReadOnly:   fsattr.ReadOnly(fi),
	}, true
}

func unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", src, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractOne(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractOne(f *zip.File, dest string) error {
	name := filepath.Clean(f.Name)
	if name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
		return fmt.Errorf("archive entry escapes destination: %s", f.Name)
	}
	target := filepath.Join(dest, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
