// Package record composes the per-image parts into the normalized record
// both output writers consume.
package record

import (
	"strconv"

	"github.com/forensio/imageinv/internal/models"
)

// Build assembles one ImageRecord. Pure composition: nil metadata becomes
// an empty set and the zero coordinate keeps its defined defaults, so every
// record renders a complete row regardless of upstream failures.
func Build(ref models.ImageFileRef, meta models.RawMetadataSet, hashes models.HashTriple, geo models.GeoCoordinate) models.ImageRecord {
	if meta == nil {
		meta = models.RawMetadataSet{}
	}
	return models.ImageRecord{
		Ref:    ref,
		Meta:   meta,
		Hashes: hashes,
		Geo:    geo,
	}
}

// Fields renders the record as the 31 report values, in the exact column
// order of the report schema. Every value is a plain string; escaping is
// the report writer's concern.
func Fields(rec models.ImageRecord) []string {
	meta := rec.Meta
	return []string{
		meta.Get(models.MetaName),
		rec.Ref.Extension,
		meta.Get(models.MetaFolderPath),
		meta.Get(models.MetaDateCreated),
		meta.Get(models.MetaDateAccessed),
		meta.Get(models.MetaDateModified),
		meta.Get(models.MetaSize),
		meta.Get(models.MetaAttributes),
		strconv.FormatBool(rec.Ref.ReadOnly),
		rec.Hashes.MD5,
		rec.Hashes.SHA1,
		rec.Hashes.SHA256,
		meta.Get(models.MetaURL),
		meta.Get(models.MetaOwner),
		meta.Get(models.MetaDateTaken),
		meta.Get(models.MetaTags),
		meta.Get(models.MetaCameraModel),
		meta.Get(models.MetaDimensions),
		meta.Get(models.MetaCameraMake),
		meta.Get(models.MetaLocation),
		meta.Get(models.MetaSubject),
		meta.Get(models.MetaTitle),
		meta.Get(models.MetaFileDescription),
		meta.Get(models.MetaKeyword1),
		meta.Get(models.MetaKeyword2),
		meta.Get(models.MetaOrientation),
		strconv.FormatBool(rec.Geo.HasGPS),
		formatCoord(rec.Geo.Latitude),
		formatCoord(rec.Geo.Longitude),
		formatCoord(rec.Geo.Altitude),
		strconv.FormatBool(rec.Geo.AboveSeaLevel),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
