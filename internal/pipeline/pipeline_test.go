package pipeline

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensio/imageinv/internal/exifmeta"
	"github.com/forensio/imageinv/internal/gps"
	"github.com/forensio/imageinv/internal/models"
	"github.com/forensio/imageinv/pkg/logger"
)

type fakeHasher struct {
	failFor map[string]bool
}

func (h *fakeHasher) Compute(path string) (models.HashTriple, error) {
	if h.failFor[filepath.Base(path)] {
		return models.HashTriple{}, errors.New("read error mid-hash")
	}
	return models.HashTriple{
		MD5:    "md5-" + filepath.Base(path),
		SHA1:   "sha1-" + filepath.Base(path),
		SHA256: "sha256-" + filepath.Base(path),
	}, nil
}

type fakeBlock struct {
	tags map[gps.TagID][]byte
}

func (b fakeBlock) Raw(id gps.TagID) ([]byte, bool) {
	v, ok := b.tags[id]
	return v, ok
}

func (b fakeBlock) ByteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

type extractResult struct {
	meta  models.RawMetadataSet
	block gps.TagBlock
	err   error
}

type fakeExtractor struct {
	results map[string]extractResult
}

func (e *fakeExtractor) Extract(ref models.ImageFileRef) (models.RawMetadataSet, gps.TagBlock, error) {
	res, ok := e.results[ref.Name]
	if !ok {
		return models.RawMetadataSet{models.MetaName: ref.Name}, nil, nil
	}
	return res.meta, res.block, res.err
}

func rationalTriple(deg, min, sec int32) []byte {
	out := make([]byte, 0, 24)
	for _, n := range []int32{deg, min, sec} {
		out = binary.LittleEndian.AppendUint32(out, uint32(n))
		out = binary.LittleEndian.AppendUint32(out, 1)
	}
	return out
}

func gpsBlock(latRef string, latDeg int32, lonRef string, lonDeg int32, altMeters int32) gps.TagBlock {
	tags := map[gps.TagID][]byte{
		gps.TagLatitudeRef:  []byte(latRef),
		gps.TagLatitude:     rationalTriple(latDeg, 0, 0),
		gps.TagLongitudeRef: []byte(lonRef),
		gps.TagLongitude:    rationalTriple(lonDeg, 0, 0),
	}
	if altMeters >= 0 {
		tags[gps.TagAltitudeRef] = []byte{0}
		alt := binary.LittleEndian.AppendUint32(nil, uint32(altMeters))
		tags[gps.TagAltitude] = binary.LittleEndian.AppendUint32(alt, 1)
	}
	return fakeBlock{tags: tags}
}

func refs(names ...string) []models.ImageFileRef {
	out := make([]models.ImageFileRef, len(names))
	for i, name := range names {
		out[i] = models.ImageFileRef{
			Path:      "/evidence/" + name,
			Name:      name,
			Extension: filepath.Ext(name),
		}
	}
	return out
}

func metaFor(name string) models.RawMetadataSet {
	return models.RawMetadataSet{
		models.MetaName:         name,
		models.MetaSize:         "100",
		models.MetaDateModified: "2023-06-14 09:31:00",
	}
}

func newTestPipeline(t *testing.T, hasher Hasher, extractor Extractor) (*Pipeline, string, string) {
	t.Helper()
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.csv")
	mapPath := filepath.Join(dir, "locations.kml")
	p := New(
		Config{Concurrency: 3, ReportPath: reportPath, MapPath: mapPath, MapTitle: "Batch"},
		hasher,
		extractor,
		logger.NewTestLogger(),
	)
	return p, reportPath, mapPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunEndToEnd(t *testing.T) {
	// a.jpg: codec can't read it. b.jpg: N 40, E 74, 10m. c.jpg: no GPS.
	extractor := &fakeExtractor{results: map[string]extractResult{
		"a.jpg": {
			meta: metaFor("a.jpg"),
			err:  fmt.Errorf("a.jpg: %w", exifmeta.ErrMetadataUnavailable),
		},
		"b.jpg": {
			meta:  metaFor("b.jpg"),
			block: gpsBlock("N", 40, "E", 74, 10),
		},
		"c.jpg": {
			meta:  metaFor("c.jpg"),
			block: fakeBlock{tags: map[gps.TagID][]byte{}},
		},
	}}
	p, reportPath, mapPath := newTestPipeline(t, &fakeHasher{}, extractor)

	summary, err := p.Run(context.Background(), refs("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Geotagged)
	assert.Equal(t, 1, summary.MetadataUnavailable)
	assert.Equal(t, 0, summary.GPSDecodeFailed)
	assert.Equal(t, 0, summary.HashFailed)
	assert.NotEmpty(t, summary.RunID)

	rows := readCSV(t, reportPath)
	require.Len(t, rows, 4, "header plus three rows")

	// Rows come out in enumeration order.
	assert.Equal(t, "a.jpg", rows[1][0])
	assert.Equal(t, "b.jpg", rows[2][0])
	assert.Equal(t, "c.jpg", rows[3][0])

	// a.jpg keeps hashes and filesystem dates despite missing metadata.
	assert.Equal(t, "md5-a.jpg", rows[1][9])
	assert.Equal(t, "2023-06-14 09:31:00", rows[1][5])
	assert.Equal(t, "", rows[1][16], "camera model empty")
	assert.Equal(t, "false", rows[1][26], "no GPS data")

	// b.jpg decoded coordinates.
	assert.Equal(t, "true", rows[2][26])
	assert.Equal(t, "40", rows[2][27])
	assert.Equal(t, "74", rows[2][28])
	assert.Equal(t, "10", rows[2][29])

	mapData, err := os.ReadFile(mapPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(mapData), "<Placemark>"))
	assert.Contains(t, string(mapData), "74,40,10", "lon,lat,alt ordering")
}

func TestRunSurvivesHashFailure(t *testing.T) {
	extractor := &fakeExtractor{results: map[string]extractResult{}}
	hasher := &fakeHasher{failFor: map[string]bool{"bad.jpg": true}}
	p, reportPath, _ := newTestPipeline(t, hasher, extractor)

	summary, err := p.Run(context.Background(), refs("bad.jpg", "good.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed, "failure must not abort later files")
	assert.Equal(t, 1, summary.HashFailed)

	rows := readCSV(t, reportPath)
	require.Len(t, rows, 3)
	assert.Equal(t, "", rows[1][9], "failed hash renders empty")
	assert.Equal(t, "md5-good.jpg", rows[2][9])
}

func TestRunCountsUndecodableGPS(t *testing.T) {
	// Latitude marker present but the triple is missing: confirmed
	// geotagged, unusable payload.
	extractor := &fakeExtractor{results: map[string]extractResult{
		"bad-gps.jpg": {
			meta: metaFor("bad-gps.jpg"),
			block: fakeBlock{tags: map[gps.TagID][]byte{
				gps.TagLatitudeRef: []byte("N"),
			}},
		},
	}}
	p, reportPath, mapPath := newTestPipeline(t, &fakeHasher{}, extractor)

	summary, err := p.Run(context.Background(), refs("bad-gps.jpg"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.GPSDecodeFailed)
	assert.Equal(t, 0, summary.Geotagged)

	rows := readCSV(t, reportPath)
	assert.Equal(t, "true", rows[1][26], "GPS Data stays true")
	assert.Equal(t, "0", rows[1][27], "coordinates zeroed")

	mapData, err := os.ReadFile(mapPath)
	require.NoError(t, err)
	assert.NotContains(t, string(mapData), "<Placemark>")
}

func TestRunCancelledBeforeDispatchStillFinalizes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, reportPath, mapPath := newTestPipeline(t, &fakeHasher{}, &fakeExtractor{})
	summary, err := p.Run(ctx, refs("a.jpg", "b.jpg"))
	require.NoError(t, err)

	assert.Zero(t, summary.Processed)

	rows := readCSV(t, reportPath)
	assert.Len(t, rows, 1, "header only")
	_, err = os.Stat(mapPath)
	assert.NoError(t, err, "map still finalized")
}

func TestRunIsSingleUse(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeHasher{}, &fakeExtractor{})
	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestRunFailsWhenReportUnwritable(t *testing.T) {
	dir := t.TempDir()
	p := New(
		Config{
			ReportPath: filepath.Join(dir, "missing", "report.csv"),
			MapPath:    filepath.Join(dir, "locations.kml"),
		},
		&fakeHasher{},
		&fakeExtractor{},
		logger.NewTestLogger(),
	)

	_, err := p.Run(context.Background(), refs("a.jpg"))
	require.Error(t, err)
}
