//go:build linux

package fsattr

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
	"time"
)

func statSys(fi os.FileInfo) (Times, string) {
	t := Times{Created: fi.ModTime(), Accessed: fi.ModTime(), Modified: fi.ModTime()}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return t, ""
	}
	t.Accessed = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	t.Created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)

	owner := strconv.FormatUint(uint64(st.Uid), 10)
	if u, err := user.LookupId(owner); err == nil {
		owner = u.Username
	}
	return t, owner
}
