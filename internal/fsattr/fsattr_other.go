//go:build !linux

package fsattr

import "os"

func statSys(fi os.FileInfo) (Times, string) {
	return Times{Created: fi.ModTime(), Accessed: fi.ModTime(), Modified: fi.ModTime()}, ""
}
