// Package geomap emits the placemark document for geotagged images. The
// coordinate order inside a placemark is longitude, latitude, altitude;
// that ordering is fixed by the KML format.
package geomap

import (
	"fmt"
	"os"
	"strings"

	"github.com/twpayne/go-kml"

	"github.com/forensio/imageinv/internal/models"
)

// Writer accumulates placemarks and serializes the document on Close. Not
// safe for concurrent use; the orchestrator is the single writer.
type Writer struct {
	f          *os.File
	title      string
	placemarks []kml.Element
}

// Open creates the map file. The document and its folder are named by
// title.
func Open(path, title string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create map %s: %w", path, err)
	}
	return &Writer{f: f, title: title}, nil
}

// AppendPlacemark adds one point. Callers must only pass coordinates of
// records whose GPS presence test passed.
func (w *Writer) AppendPlacemark(name, description string, lon, lat, alt float64) error {
	w.placemarks = append(w.placemarks, kml.Placemark(
		kml.Name(name),
		kml.Description(description),
		kml.Point(
			kml.Coordinates(kml.Coordinate{Lon: lon, Lat: lat, Alt: alt}),
		),
	))
	return nil
}

// Close serializes the whole document and releases the file. A failure
// here means the map is unusable and is fatal to the run.
func (w *Writer) Close() error {
	folder := append([]kml.Element{kml.Name(w.title)}, w.placemarks...)
	doc := kml.KML(
		kml.Document(
			kml.Name(w.title),
			kml.Folder(folder...),
		),
	)

	if err := doc.WriteIndent(w.f, "", "  "); err != nil {
		w.f.Close()
		return fmt.Errorf("write map document: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close map: %w", err)
	}
	return nil
}

// Describe renders the human-readable placemark block for one record:
// identity, timestamps, the three digests and the decoded coordinates.
func Describe(rec models.ImageRecord) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}

	line("Name", rec.Ref.Name)
	line("Path", rec.Ref.Path)
	line("Date Created", rec.Meta.Get(models.MetaDateCreated))
	line("Date Modified", rec.Meta.Get(models.MetaDateModified))
	if taken := rec.Meta.Get(models.MetaDateTaken); taken != "" {
		line("Date Taken", taken)
	}
	line("MD5", rec.Hashes.MD5)
	line("SHA1", rec.Hashes.SHA1)
	line("SHA256", rec.Hashes.SHA256)
	fmt.Fprintf(&b, "Latitude: %v\nLongitude: %v\nAltitude: %v\n",
		rec.Geo.Latitude, rec.Geo.Longitude, rec.Geo.Altitude)
	return b.String()
}
