// Package report writes the tabular inventory: one header plus one row per
// image, every field double-quoted.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/forensio/imageinv/internal/models"
	"github.com/forensio/imageinv/internal/record"
)

// Columns is the fixed report schema. Row values come from record.Fields
// in the same order. The boolean columns (Read Only, GPS Data, Sea Level)
// render true/false; Sea Level true means above sea level.
var Columns = []string{
	"File Name",
	"Extension",
	"Directory",
	"Date Created",
	"Date Accessed",
	"Date Modified",
	"File Size",
	"Attributes",
	"Read Only",
	"MD5 Hash",
	"SHA1 Hash",
	"SHA256 Hash",
	"URL",
	"Owner",
	"Date Taken",
	"Tags",
	"Camera Model",
	"Dimensions",
	"Camera Make",
	"Location",
	"Subject",
	"Title",
	"File Description",
	"Keywords1",
	"Keywords2",
	"Orientation",
	"GPS Data",
	"Latitude",
	"Longitude",
	"Altitude",
	"Sea Level",
}

// Writer appends quoted rows to the report file. Not safe for concurrent
// use; the orchestrator is the single writer.
type Writer struct {
	f *os.File
}

// Open creates the report file and writes the header row.
func Open(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report %s: %w", path, err)
	}
	w := &Writer{f: f}
	if err := w.writeRow(Columns); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Append writes one record as a single row. The row is built in full
// before any bytes hit the file, so rows never interleave partially.
func (w *Writer) Append(rec models.ImageRecord) error {
	return w.writeRow(record.Fields(rec))
}

// Close flushes and releases the file.
func (w *Writer) Close() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

func (w *Writer) writeRow(fields []string) error {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	if _, err := w.f.WriteString(strings.Join(quoted, ",") + "\n"); err != nil {
		return fmt.Errorf("write report row: %w", err)
	}
	return nil
}
