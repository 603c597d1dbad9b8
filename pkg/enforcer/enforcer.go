package enforcer

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"priofix/pkg/config"
	"priofix/pkg/logger"
	"priofix/pkg/priority"
	"priofix/pkg/procscan"
	"priofix/pkg/sys"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	KindEnumeration   ErrorKind = "enumeration"
	KindAdjustment    ErrorKind = "adjustment"
	KindConfiguration ErrorKind = "configuration"
)

// IterationError is what a single polling iteration reports to Run.
type IterationError struct {
	Kind ErrorKind
	Pid  int32
	Err  error
}

func (e *IterationError) Error() string {
	if e.Pid > 0 {
		return fmt.Sprintf("%s: pid %d: %v", e.Kind, e.Pid, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *IterationError) Unwrap() error { return e.Err }

// IsKind reports whether err carries an IterationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ie *IterationError
	return stderrors.As(err, &ie) && ie.Kind == kind
}

type NiceReader interface {
	Nice(pid int32) (int, error)
}

type NiceFunc func(pid int32) (int, error)

func (f NiceFunc) Nice(pid int32) (int, error) { return f(pid) }

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Enforcer struct {
	logger    logger.Logger
	cfg       config.Config
	method    priority.Method
	lister    procscan.Lister
	commander *priority.Commander
	nice      NiceReader
	sleep     Sleeper
}

func New(cfg config.Config, method priority.Method) *Enforcer {
	return &Enforcer{
		logger: logger.Default(),
		cfg:    cfg,
		method: method,
		lister: procscan.NewPsutilLister(),
		commander: priority.NewCommander(
			priority.ExecRunner{Timeout: cfg.CommandTimeout},
			cfg.Escalation,
			cfg.EscalatePrefix(),
		),
		nice: NiceFunc(func(pid int32) (int, error) {
			return sys.GetNice(int(pid))
		}),
		sleep: sleepCtx,
	}
}

func (e *Enforcer) WithLogger(logger logger.Logger) {
	e.logger = logger
	e.commander.WithLogger(logger)
	if l, ok := e.lister.(*procscan.PsutilLister); ok {
		l.WithLogger(logger)
	}
}

func (e *Enforcer) WithLister(lister procscan.Lister) {
	e.lister = lister
}

func (e *Enforcer) WithRunner(runner priority.Runner) {
	e.commander = priority.NewCommander(runner, e.cfg.Escalation, e.cfg.EscalatePrefix())
	e.commander.WithLogger(e.logger)
}

func (e *Enforcer) WithNiceReader(nice NiceReader) {
	e.nice = nice
}

func (e *Enforcer) WithSleeper(sleep Sleeper) {
	e.sleep = sleep
}

func (e *Enforcer) Method() priority.Method {
	return e.method
}

// Run polls until ctx is done. Errors from an iteration are logged and the
// next iteration starts after the configured interval.
func (e *Enforcer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := e.runGuarded(ctx); err != nil {
			e.logger.Errorf("Error: %v", err)
		}
		if err := e.sleep(ctx, e.cfg.Interval); err != nil {
			e.logger.Debugf("context done")
			return nil
		}
	}
}

// runGuarded turns a panic inside one iteration into an error so the loop
// keeps going.
func (e *Enforcer) runGuarded(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &IterationError{Kind: KindEnumeration, Err: errors.Errorf("panic: %v", r)}
		}
	}()
	_, err = e.RunOnce(ctx)
	return err
}

// RunOnce takes one snapshot and applies the priority to every selected
// match. A failure for one pid does not stop the others; the returned error
// joins all of them. It returns how many pids were processed.
func (e *Enforcer) RunOnce(ctx context.Context) (int, error) {
	snapshot, err := e.lister.List(ctx)
	if err != nil {
		return 0, &IterationError{Kind: KindEnumeration, Err: err}
	}

	matched := procscan.Select(snapshot, e.cfg.TargetName, e.cfg.MatchPolicy == config.MatchFirst)
	var errs []error
	for _, p := range matched {
		if err := e.ApplyPriority(ctx, p.Pid, e.method); err != nil {
			errs = append(errs, err)
		}
	}
	return len(matched), stderrors.Join(errs...)
}

// ApplyPriority is best effort: pid is not re-validated and nothing is read
// back after a realtime change.
func (e *Enforcer) ApplyPriority(ctx context.Context, pid int32, method priority.Method) error {
	var argv []string
	switch method {
	case priority.Nice:
		current, err := e.nice.Nice(pid)
		if err != nil {
			return &IterationError{Kind: KindAdjustment, Pid: pid, Err: errors.Wrap(err, "read nice value")}
		}
		if current == e.cfg.NiceValue {
			return nil
		}
		e.logger.Infof("Setting priority of %s with pid %d to %d", e.cfg.TargetName, pid, e.cfg.NiceValue)
		argv = priority.ReniceArgs(e.cfg.NiceValue, pid)
	case priority.Realtime:
		argv = priority.ChrtArgs(e.cfg.RealtimePriority, pid)
	default:
		return &IterationError{Kind: KindConfiguration, Pid: pid, Err: errors.Wrapf(priority.ErrUnsupportedMethod, "%q", method)}
	}

	if err := e.commander.Run(ctx, argv); err != nil {
		return &IterationError{Kind: KindAdjustment, Pid: pid, Err: err}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
