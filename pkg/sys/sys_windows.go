package sys

import (
	"errors"
)

var ErrUnsupported = errors.New("nice values are not supported on windows")

func GetNice(pid int) (int, error) {
	return 0, ErrUnsupported
}
