// Package gps decodes the raw byte payloads of the embedded GPS tags into
// signed decimal degrees. It operates on bytes plus a byte order and knows
// nothing about how the tags were fetched from the image container.
package gps

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/forensio/imageinv/internal/models"
)

// TagID addresses one tag inside the GPS sub-directory.
type TagID uint16

const (
	TagLatitudeRef  TagID = 0x0001 // "N" or "S"
	TagLatitude     TagID = 0x0002 // three rationals: deg, min, sec
	TagLongitudeRef TagID = 0x0003 // "E" or "W"
	TagLongitude    TagID = 0x0004
	TagAltitudeRef  TagID = 0x0005 // 0 = above sea level, 1 = below
	TagAltitude     TagID = 0x0006 // one rational, meters
)

// TagBlock exposes the undecoded payload of the GPS tags of one image.
type TagBlock interface {
	// Raw returns the payload bytes for id, or false when the tag is not
	// present in the image.
	Raw(id TagID) ([]byte, bool)
	ByteOrder() binary.ByteOrder
}

// DecodeError reports GPS data that is present but unusable: the latitude
// marker exists yet a mandatory tag is missing or malformed.
type DecodeError struct {
	Tag    TagID
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gps tag 0x%04x: %s", uint16(e.Tag), e.Reason)
}

const rationalTripleLen = 24 // 3 components x 2 int32

// Decode converts the tag block into a coordinate.
//
// The latitude hemisphere marker is the presence test: if it is absent the
// image carries no GPS data and the zero coordinate is returned with no
// error. Once the marker exists, latitude and longitude are mandatory and
// any defect in them is a DecodeError. Altitude stays optional; a missing
// or malformed altitude tag falls back to 0 meters above sea level.
func Decode(block TagBlock) (models.GeoCoordinate, error) {
	latRef, ok := block.Raw(TagLatitudeRef)
	if !ok {
		return models.NoGPS(), nil
	}

	order := block.ByteOrder()

	lat, err := signedDegrees(block, order, TagLatitude, latRef, 'S')
	if err != nil {
		return models.GeoCoordinate{}, err
	}

	lonRef, ok := block.Raw(TagLongitudeRef)
	if !ok {
		return models.GeoCoordinate{}, &DecodeError{Tag: TagLongitudeRef, Reason: "missing hemisphere marker"}
	}
	lon, err := signedDegrees(block, order, TagLongitude, lonRef, 'W')
	if err != nil {
		return models.GeoCoordinate{}, err
	}

	alt, above := decodeAltitude(block, order)

	return models.GeoCoordinate{
		Latitude:      lat,
		Longitude:     lon,
		Altitude:      alt,
		AboveSeaLevel: above,
		HasGPS:        true,
	}, nil
}

// signedDegrees decodes one deg/min/sec rational triple and applies the
// hemisphere sign. negMarker is the ASCII character that flips the sign.
func signedDegrees(block TagBlock, order binary.ByteOrder, id TagID, ref []byte, negMarker byte) (float64, error) {
	raw, ok := block.Raw(id)
	if !ok {
		return 0, &DecodeError{Tag: id, Reason: "missing coordinate triple"}
	}
	if len(raw) < rationalTripleLen {
		return 0, &DecodeError{Tag: id, Reason: fmt.Sprintf("short payload: %d bytes", len(raw))}
	}

	// Sum deg + min/60 + sec/3600 as exact rationals; converting each
	// component to a float before summing loses precision across the
	// nested divisions.
	total := new(big.Rat)
	divisors := [3]int64{1, 60, 3600}
	for i, div := range divisors {
		num := int32(order.Uint32(raw[i*8:]))
		den := int32(order.Uint32(raw[i*8+4:]))
		if den == 0 {
			return 0, &DecodeError{Tag: id, Reason: "zero denominator"}
		}
		total.Add(total, big.NewRat(int64(num), int64(den)*div))
	}

	value, _ := total.Float64()
	if hemisphere(ref) == negMarker {
		value = -value
	}
	return value, nil
}

// decodeAltitude reads the optional altitude pair. Any absent or malformed
// piece degrades to the 0-meters-above-sea-level default without failing
// the coordinate.
func decodeAltitude(block TagBlock, order binary.ByteOrder) (float64, bool) {
	ref, ok := block.Raw(TagAltitudeRef)
	if !ok || len(ref) < 1 {
		return 0, true
	}
	raw, ok := block.Raw(TagAltitude)
	if !ok || len(raw) < 8 {
		return 0, true
	}

	num := int32(order.Uint32(raw[0:]))
	den := int32(order.Uint32(raw[4:]))
	if den == 0 {
		return 0, true
	}

	value, _ := big.NewRat(int64(num), int64(den)).Float64()
	return value, ref[0] == 0
}

// hemisphere extracts the marker character from a ref payload, tolerating
// NUL termination.
func hemisphere(ref []byte) byte {
	for _, b := range ref {
		if b != 0 && b != ' ' {
			return b
		}
	}
	return 0
}
