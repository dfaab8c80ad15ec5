// Package hash computes the content digests recorded for every inventoried
// file: MD5, SHA-1 and SHA-256 over the identical byte stream.
package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/forensio/imageinv/internal/models"
)

// Computer digests file content. Safe for concurrent use; each call builds
// fresh digest state.
type Computer struct{}

func New() *Computer {
	return &Computer{}
}

// Compute reads the file once and returns all three digests as lowercase
// hex. A file that cannot be opened or read yields an error the caller is
// expected to treat as a per-file failure.
func (c *Computer) Compute(path string) (models.HashTriple, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.HashTriple{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h5 := md5.New()
	h1 := sha1.New()
	h256 := sha256.New()

	if _, err := io.Copy(io.MultiWriter(h5, h1, h256), f); err != nil {
		return models.HashTriple{}, fmt.Errorf("read %s: %w", path, err)
	}

	return models.HashTriple{
		MD5:    hex.EncodeToString(h5.Sum(nil)),
		SHA1:   hex.EncodeToString(h1.Sum(nil)),
		SHA256: hex.EncodeToString(h256.Sum(nil)),
	}, nil
}
