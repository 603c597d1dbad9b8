package procscan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		proc Process
		want bool
	}{
		{"name", Process{Pid: 1, Name: "klippy.py"}, true},
		{"name substring", Process{Pid: 1, Name: "klippy.py-env"}, true},
		{"cmdline", Process{Pid: 1, Name: "python3", Cmdline: []string{"/usr/bin/python3", "/home/pi/klipper/klippy/klippy.py", "-l", "/tmp/klippy.log"}}, true},
		{"cmdline across args", Process{Pid: 1, Name: "sh", Cmdline: []string{"run", "klippy.py"}}, true},
		{"other", Process{Pid: 200, Name: "other", Cmdline: []string{"other", "--flag"}}, false},
		{"empty cmdline", Process{Pid: 1, Name: "kthreadd"}, false},
		{"nothing known", Process{Pid: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.proc, "klippy.py"))
		})
	}

	assert.False(t, Match(Process{Name: "anything"}, ""), "empty target matches nothing")
}

func TestSelect(t *testing.T) {
	snapshot := []Process{
		{Pid: 10, Name: "systemd"},
		{Pid: 11, Name: "python3", Cmdline: []string{"python3", "klippy.py"}},
		{Pid: 12},
		{Pid: 13, Name: "klippy.py"},
		{Pid: 14, Name: "other", Cmdline: []string{"other", "--flag"}},
	}

	all := Select(snapshot, "klippy.py", false)
	require.Len(t, all, 2)
	assert.EqualValues(t, 11, all[0].Pid)
	assert.EqualValues(t, 13, all[1].Pid)

	first := Select(snapshot, "klippy.py", true)
	require.Len(t, first, 1)
	assert.EqualValues(t, 11, first[0].Pid)

	assert.Empty(t, Select(snapshot, "moonraker", false))
}

func TestPsutilListerSeesSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc")
	}
	snapshot, err := NewPsutilLister().List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, snapshot)

	var self *Process
	for i := range snapshot {
		if int(snapshot[i].Pid) == os.Getpid() {
			self = &snapshot[i]
			break
		}
	}
	require.NotNil(t, self, "own pid %d missing from snapshot", os.Getpid())
	assert.NotEmpty(t, self.Name)
	assert.NotEmpty(t, self.Cmdline)
}

type debugLogger struct {
	debug []string
}

func (l *debugLogger) Printf(string, ...interface{}) {}
func (l *debugLogger) Tracef(string, ...interface{}) {}
func (l *debugLogger) Debugf(format string, args ...interface{}) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}
func (l *debugLogger) Infof(string, ...interface{}) {}
func (l *debugLogger) Warnf(string, ...interface{}) {}
func (l *debugLogger) Errorf(string, ...interface{}) {}

type stubProc struct {
	name    string
	cmdline []string
	nameErr error
	cmdErr  error
}

func (s stubProc) NameWithContext(context.Context) (string, error) { return s.name, s.nameErr }

func (s stubProc) CmdlineSliceWithContext(context.Context) ([]string, error) {
	return s.cmdline, s.cmdErr
}

func TestDescribeDegradesUnreadableFields(t *testing.T) {
	log := &debugLogger{}
	l := NewPsutilLister()
	l.WithLogger(log)
	ctx := context.Background()

	p := l.describe(ctx, 7, stubProc{name: "python3", cmdErr: errors.New("permission denied")})
	assert.Equal(t, Process{Pid: 7, Name: "python3"}, p)

	p = l.describe(ctx, 8, stubProc{nameErr: errors.New("gone"), cmdline: []string{"python3", "klippy.py"}})
	assert.Equal(t, Process{Pid: 8, Cmdline: []string{"python3", "klippy.py"}}, p)
	assert.True(t, Match(p, "klippy.py"))

	require.Len(t, log.debug, 2)
	assert.Equal(t, "get process(pid:7) cmdline failed,err:permission denied", log.debug[0])
	assert.Equal(t, "get process(pid:8) name failed,err:gone", log.debug[1])
}
