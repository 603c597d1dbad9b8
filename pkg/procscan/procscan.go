// Package procscan takes snapshots of the process table and picks out the
// processes whose name or command line mention a target.
package procscan

import (
	"context"
	"strings"

	"priofix/pkg/logger"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
)

// Process is one entry of a snapshot. Name and Cmdline are empty when the
// OS would not tell us.
type Process struct {
	Pid     int32
	Name    string
	Cmdline []string
}

type Lister interface {
	List(ctx context.Context) ([]Process, error)
}

// PsutilLister reads the process table through gopsutil.
type PsutilLister struct {
	logger logger.Logger
}

func NewPsutilLister() *PsutilLister {
	return &PsutilLister{logger: logger.Default()}
}

func (l *PsutilLister) WithLogger(logger logger.Logger) {
	l.logger = logger
}

func (l *PsutilLister) List(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list processes")
	}

	snapshot := make([]Process, 0, len(procs))
	for _, proc := range procs {
		snapshot = append(snapshot, l.describe(ctx, proc.Pid, proc))
	}
	return snapshot, nil
}

// procReader is the part of *process.Process a snapshot needs.
type procReader interface {
	NameWithContext(ctx context.Context) (string, error)
	CmdlineSliceWithContext(ctx context.Context) ([]string, error)
}

// describe never fails: a field the OS will not hand over is left empty.
func (l *PsutilLister) describe(ctx context.Context, pid int32, proc procReader) Process {
	p := Process{Pid: pid}

	name, err := proc.NameWithContext(ctx)
	if err != nil {
		l.logger.Debugf("get process(pid:%d) name failed,err:%v", pid, err)
		name = ""
	}
	p.Name = name

	cmdline, err := proc.CmdlineSliceWithContext(ctx)
	if err != nil {
		l.logger.Debugf("get process(pid:%d) cmdline failed,err:%v", pid, err)
		cmdline = nil
	}
	p.Cmdline = cmdline

	return p
}

// Match reports whether target occurs in the process name or in its
// arguments joined by single spaces.
func Match(p Process, target string) bool {
	if target == "" {
		return false
	}
	if p.Name != "" && strings.Contains(p.Name, target) {
		return true
	}
	if len(p.Cmdline) == 0 {
		return false
	}
	return strings.Contains(strings.Join(p.Cmdline, " "), target)
}

// Select returns the matching processes in snapshot order. With first set
// only the earliest match is returned.
func Select(snapshot []Process, target string, first bool) []Process {
	var matched []Process
	for _, p := range snapshot {
		if !Match(p, target) {
			continue
		}
		matched = append(matched, p)
		if first {
			break
		}
	}
	return matched
}
