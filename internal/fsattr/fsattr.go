// Package fsattr reads the filesystem-level attributes of a file that the
// inventory records alongside embedded metadata: the three timestamps, the
// owning user and the read-only flag.
package fsattr

import (
	"os"
	"time"
)

// Times holds the filesystem timestamps of one file. Created carries the
// inode change time on platforms without a birth time.
type Times struct {
	Created  time.Time
	Accessed time.Time
	Modified time.Time
}

// Stat returns the timestamps and owner for fi as reported by the platform.
func Stat(fi os.FileInfo) (Times, string) {
	return statSys(fi)
}

// ReadOnly reports whether the owner write bit is cleared.
func ReadOnly(fi os.FileInfo) bool {
	return fi.Mode().Perm()&0o200 == 0
}
