package priority

import (
	"strconv"

	"github.com/pkg/errors"
)

type Method string

const (
	Nice     Method = "nice"
	Realtime Method = "realtime"
)

var ErrUnsupportedMethod = errors.New("unsupported priority method")

var allowedMethods = map[string]Method{
	"nice":     Nice,
	"realtime": Realtime,
	"chrt":     Realtime,
}

// ParseMethod never fails: anything not spelled exactly as an allow-list
// entry selects Nice.
func ParseMethod(s string) Method {
	if m, ok := allowedMethods[s]; ok {
		return m
	}
	return Nice
}

func (m Method) Valid() bool {
	return m == Nice || m == Realtime
}

// ReniceArgs builds `renice -n <value> -p <pid>`.
func ReniceArgs(value int, pid int32) []string {
	return []string{"renice", "-n", strconv.Itoa(value), "-p", strconv.Itoa(int(pid))}
}

// ChrtArgs builds a chrt call moving every thread of pid to the default
// real-time policy with priority rtPriority.
func ChrtArgs(rtPriority int, pid int32) []string {
	return []string{"chrt", "--verbose", "--all-tasks", "--pid", strconv.Itoa(rtPriority), strconv.Itoa(int(pid))}
}
