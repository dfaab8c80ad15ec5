package exifmeta

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/forensio/imageinv/internal/gps"
)

// Provider exposes the embedded properties of one image through named
// accessors. The second return reports whether the image carries the
// attribute; implementations never fail on a single missing attribute.
type Provider interface {
	CameraMake() (string, bool)
	CameraModel() (string, bool)
	DateTaken() (time.Time, bool)
	Dimensions() (width, height int, ok bool)
	Orientation() (int, bool)
	Title() (string, bool)
	Subject() (string, bool)
	Description() (string, bool)
	Keywords() ([]string, bool)
	Location() (string, bool)
	GPS() (gps.TagBlock, bool)
}

// OpenFunc opens the embedded metadata of a file. It fails only when the
// file cannot be recognized as an image at all.
type OpenFunc func(path string) (Provider, error)

// OpenEXIF is the goexif-backed OpenFunc used outside of tests.
func OpenEXIF(path string) (Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode exif in %s: %w", path, err)
	}
	return &exifProvider{x: x}, nil
}

type exifProvider struct {
	x *exif.Exif
}

func (p *exifProvider) CameraMake() (string, bool) {
	return p.str(exif.Make)
}

func (p *exifProvider) CameraModel() (string, bool) {
	return p.str(exif.Model)
}

func (p *exifProvider) DateTaken() (time.Time, bool) {
	t, err := p.x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (p *exifProvider) Dimensions() (int, int, bool) {
	w, err := p.intVal(exif.PixelXDimension)
	if err != nil {
		return 0, 0, false
	}
	h, err := p.intVal(exif.PixelYDimension)
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

func (p *exifProvider) Orientation() (int, bool) {
	v, err := p.intVal(exif.Orientation)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *exifProvider) Title() (string, bool) {
	return p.xpStr(exif.XPTitle)
}

func (p *exifProvider) Subject() (string, bool) {
	return p.xpStr(exif.XPSubject)
}

func (p *exifProvider) Description() (string, bool) {
	return p.str(exif.ImageDescription)
}

func (p *exifProvider) Keywords() ([]string, bool) {
	s, ok := p.xpStr(exif.XPKeywords)
	if !ok || s == "" {
		return nil, false
	}
	parts := strings.Split(s, ";")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords, len(keywords) > 0
}

func (p *exifProvider) Location() (string, bool) {
	return p.str(exif.GPSAreaInformation)
}

func (p *exifProvider) GPS() (gps.TagBlock, bool) {
	return &exifTagBlock{x: p.x}, true
}

func (p *exifProvider) str(name exif.FieldName) (string, bool) {
	tag, err := p.x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	return s, s != ""
}

func (p *exifProvider) intVal(name exif.FieldName) (int, error) {
	tag, err := p.x.Get(name)
	if err != nil {
		return 0, err
	}
	return tag.Int(0)
}

// xpStr reads one of the XP* tags, which hold UTF-16LE bytes rather than
// ASCII strings.
func (p *exifProvider) xpStr(name exif.FieldName) (string, bool) {
	tag, err := p.x.Get(name)
	if err != nil {
		return "", false
	}
	s := decodeUTF16(tag.Val)
	return s, s != ""
}

func decodeUTF16(val []byte) string {
	if len(val) < 2 {
		return ""
	}
	u := make([]uint16, 0, len(val)/2)
	for i := 0; i+1 < len(val); i += 2 {
		u = append(u, binary.LittleEndian.Uint16(val[i:]))
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}

// exifTagBlock adapts the decoded EXIF directory to the raw tag reader the
// coordinate decoder consumes.
type exifTagBlock struct {
	x *exif.Exif
}

var gpsFieldNames = map[gps.TagID]exif.FieldName{
	gps.TagLatitudeRef:  exif.GPSLatitudeRef,
	gps.TagLatitude:     exif.GPSLatitude,
	gps.TagLongitudeRef: exif.GPSLongitudeRef,
	gps.TagLongitude:    exif.GPSLongitude,
	gps.TagAltitudeRef:  exif.GPSAltitudeRef,
	gps.TagAltitude:     exif.GPSAltitude,
}

func (b *exifTagBlock) Raw(id gps.TagID) ([]byte, bool) {
	name, ok := gpsFieldNames[id]
	if !ok {
		return nil, false
	}
	tag, err := b.x.Get(name)
	if err != nil || len(tag.Val) == 0 {
		return nil, false
	}
	return tag.Val, true
}

func (b *exifTagBlock) ByteOrder() binary.ByteOrder {
	if b.x.Tiff != nil && b.x.Tiff.Order != nil {
		return b.x.Tiff.Order
	}
	return binary.BigEndian
}
