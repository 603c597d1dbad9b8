package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"priofix/pkg/config"
	"priofix/pkg/enforcer"
	"priofix/pkg/logger"
	"priofix/pkg/priority"

	"github.com/spf13/cobra"
)

type options struct {
	target     string
	nice       int
	interval   time.Duration
	match      string
	escalation string
	logLevel   string
	once       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "priofix [nice|realtime]",
		Short: "Keep a named process at high CPU priority",
		Long: `priofix polls the process table and raises the priority of every process
whose name or command line contains the target string.

  nice      renice matches to the target nice value (default)
  realtime  move matches and all their threads to the real-time class with chrt

Any other method argument falls back to nice. Settings are read from
PRIOFIX_* environment variables; flags take precedence.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.target, "target", "", "process name substring to manage")
	f.IntVar(&opts.nice, "nice", 0, "target nice value from -20 to 19")
	f.DurationVar(&opts.interval, "interval", 0, "polling interval")
	f.StringVar(&opts.match, "match", "", "which matches to adjust: all or first")
	f.StringVar(&opts.escalation, "escalation", "", "privilege escalation: fallback, always or never")
	f.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn or error")
	f.BoolVar(&opts.once, "once", false, "run a single iteration and exit")
	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config failed,err:", err)
		return err
	}
	applyFlags(cmd, &cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid config,err:", err)
		return err
	}

	log := logger.New(os.Stdout, cfg.LogLevel)

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	method := priority.ParseMethod(arg)
	if arg != "" && method != priority.Method(arg) {
		log.Debugf("method %q resolved to %s", arg, method)
	}

	fmt.Printf("method: %s\n%s\n", method, cfg)
	if method == priority.Realtime {
		log.Warnf("realtime scheduling can starve the rest of the system if the target misbehaves")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sig := <-ch
		log.Infof("signal %s received,priofix exit", sig.String())
		cancel()
	}()

	e := enforcer.New(cfg, method)
	e.WithLogger(log)

	if opts.once {
		n, err := e.RunOnce(ctx)
		log.Infof("%d matching process(es) for %s", n, cfg.TargetName)
		if err != nil {
			log.Errorf("Error: %v", err)
		}
		return err
	}
	return e.Run(ctx)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, opts options) {
	f := cmd.Flags()
	if f.Changed("target") {
		cfg.TargetName = opts.target
	}
	if f.Changed("nice") {
		cfg.NiceValue = opts.nice
	}
	if f.Changed("interval") {
		cfg.Interval = opts.interval
	}
	if f.Changed("match") {
		cfg.MatchPolicy = opts.match
	}
	if f.Changed("escalation") {
		cfg.Escalation = opts.escalation
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	cfg.Normalize()
}
