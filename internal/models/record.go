package models

import (
	"time"
)

// MetaKey identifies one attribute slot in a RawMetadataSet.
type MetaKey string

const (
	MetaName            MetaKey = "name"
	MetaSize            MetaKey = "size"
	MetaDateCreated     MetaKey = "dateCreated"
	MetaDateAccessed    MetaKey = "dateAccessed"
	MetaDateModified    MetaKey = "dateModified"
	MetaAttributes      MetaKey = "attributes"
	MetaURL             MetaKey = "url"
	MetaOwner           MetaKey = "owner"
	MetaDateTaken       MetaKey = "dateTaken"
	MetaTags            MetaKey = "tags"
	MetaCameraModel     MetaKey = "cameraModel"
	MetaDimensions      MetaKey = "dimensions"
	MetaCameraMake      MetaKey = "cameraMake"
	MetaLocation        MetaKey = "location"
	MetaSubject         MetaKey = "subject"
	MetaTitle           MetaKey = "title"
	MetaFileDescription MetaKey = "fileDescription"
	MetaKeyword1        MetaKey = "keyword1"
	MetaKeyword2        MetaKey = "keyword2"
	MetaOrientation     MetaKey = "orientation"
	MetaFolderPath      MetaKey = "folderPath"
)

// RawMetadataSet maps the fixed attribute keys to rendered string values.
// A missing or unreadable attribute is an empty string, never an error.
type RawMetadataSet map[MetaKey]string

// Get returns the value for key, or "" when the key was never populated.
func (s RawMetadataSet) Get(key MetaKey) string {
	if s == nil {
		return ""
	}
	return s[key]
}

// ImageFileRef identifies one candidate file produced by the enumerator.
type ImageFileRef struct {
	Path       string // absolute
	Name       string
	Extension  string
	AccessedAt time.Time
	ReadOnly   bool
}

// HashTriple holds lowercase hex digests of the full file content.
type HashTriple struct {
	MD5    string
	SHA1   string
	SHA256 string
}

// GeoCoordinate is a decoded GPS position in signed decimal degrees.
// South and west are negative. When HasGPS is false every other field
// holds its zero default and must not be read as a real location.
type GeoCoordinate struct {
	Latitude      float64
	Longitude     float64
	Altitude      float64
	AboveSeaLevel bool
	HasGPS        bool
}

// NoGPS is the coordinate recorded for files without a GPS tag block.
func NoGPS() GeoCoordinate {
	return GeoCoordinate{AboveSeaLevel: true}
}

// ImageRecord is the per-image unit consumed by the report and map writers.
type ImageRecord struct {
	Ref    ImageFileRef
	Meta   RawMetadataSet
	Hashes HashTriple
	Geo    GeoCoordinate
}
