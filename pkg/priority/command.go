package priority

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"priofix/pkg/config"
	"priofix/pkg/logger"

	"github.com/pkg/errors"
)

type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands directly, without a shell.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := string(bytes.TrimSpace(out)); msg != "" {
			return out, errors.Wrapf(err, "%s: %s", name, msg)
		}
		return out, errors.Wrap(err, name)
	}
	return out, nil
}

// Commander runs a command unprivileged, escalated, or one then the other,
// depending on the escalation mode.
type Commander struct {
	logger     logger.Logger
	runner     Runner
	escalation string
	prefix     []string
}

func NewCommander(runner Runner, escalation string, prefix []string) *Commander {
	return &Commander{
		logger:     logger.Default(),
		runner:     runner,
		escalation: escalation,
		prefix:     prefix,
	}
}

func (c *Commander) WithLogger(logger logger.Logger) {
	c.logger = logger
}

// Run executes argv. In fallback mode the escalated attempt reuses the exact
// same argv and only happens after the unprivileged one failed.
func (c *Commander) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}

	switch c.escalation {
	case config.EscalateAlways:
		return c.escalated(ctx, argv)
	case config.EscalateNever:
		return c.plain(ctx, argv)
	}

	err := c.plain(ctx, argv)
	if err == nil {
		return nil
	}
	c.logger.Debugf("%s failed,err:%v, retrying with %s", argv[0], err, strings.Join(c.prefix, " "))
	if escErr := c.escalated(ctx, argv); escErr != nil {
		return errors.Wrapf(escErr, "unprivileged attempt: %v; escalated attempt", err)
	}
	return nil
}

func (c *Commander) plain(ctx context.Context, argv []string) error {
	out, err := c.runner.Run(ctx, argv[0], argv[1:]...)
	c.logOutput(argv, out)
	return err
}

func (c *Commander) escalated(ctx context.Context, argv []string) error {
	if len(c.prefix) == 0 {
		return errors.New("no escalate command configured")
	}
	full := append(append([]string{}, c.prefix...), argv...)
	out, err := c.runner.Run(ctx, full[0], full[1:]...)
	c.logOutput(full, out)
	return err
}

func (c *Commander) logOutput(argv []string, out []byte) {
	if len(out) > 0 {
		c.logger.Debugf("%s: %s", strings.Join(argv, " "), bytes.TrimSpace(out))
	}
}
