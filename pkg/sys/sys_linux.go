package sys

import (
	"golang.org/x/sys/unix"
)

// GetNice returns the nice value of pid.
func GetNice(pid int) (int, error) {
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, pid)
	if err != nil {
		return 0, err
	}
	// the raw syscall reports 20 - nice so that it never goes negative
	return 20 - prio, nil
}
