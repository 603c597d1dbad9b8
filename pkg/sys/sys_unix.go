//go:build unix && !linux

package sys

import (
	"golang.org/x/sys/unix"
)

// GetNice returns the nice value of pid.
func GetNice(pid int) (int, error) {
	return unix.Getpriority(unix.PRIO_PROCESS, pid)
}
