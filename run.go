package pipexec

import (
	"fmt"
	"os"

	"github.com/edirooss/pipexec/pkg/piptrace"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// runConfig holds the resolved configuration for one Run call.
type runConfig struct {
	stdin, stdout, stderr StreamSpec
	logger                *zap.Logger
	env                   []string
	trace                 *piptrace.Recorder
}

func defaultConfig() runConfig {
	return runConfig{
		stdin:  Null(),
		stdout: Null(),
		stderr: Data(nil),
		logger: zap.NewNop(),
	}
}

// Option configures a Run or Execute call.
type Option func(*runConfig)

// Stdin routes the first command's standard input.
func Stdin(s StreamSpec) Option { return func(c *runConfig) { c.stdin = s } }

// Stdout routes the last command's standard output.
func Stdout(s StreamSpec) Option { return func(c *runConfig) { c.stdout = s } }

// Stderr routes every command's standard error (the same fd is shared
// across every stage of the pipeline).
func Stderr(s StreamSpec) Option { return func(c *runConfig) { c.stderr = s } }

// Logger attaches a structured logger; a nil Logger is ignored.
func Logger(l *zap.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Env sets the environment passed to every child. Defaults to the
// caller's own environment (os.Environ()) when unset.
func Env(env []string) Option { return func(c *runConfig) { c.env = env } }

// Trace attaches a piptrace.Recorder that captures the multiplexer's
// readiness events for post-mortem debugging of a stuck or misbehaving
// pipeline. A nil Recorder disables tracing (the default).
func Trace(r *piptrace.Recorder) Option { return func(c *runConfig) { c.trace = r } }

// Run launches pipeline synchronously: it forks every command, transports
// stdin/stdout/stderr per the given options, waits for every command to
// exit, and returns the captured stdout and stderr buffers (nil for any
// stream not routed through Data).
//
// A non-zero exit from any stage is reported as a *ChildProcessFailure,
// not a nil error with a status code — callers that need to distinguish
// "ran and failed" from "could not run at all" should use errors.As
// against *ChildProcessFailure, *ChannelError, and *SystemError.
func (pipeline Pipeline) Run(opts ...Option) (stdout, stderr []byte, err error) {
	if len(pipeline) == 0 {
		return nil, nil, fmt.Errorf("pipexec: empty pipeline")
	}
	for _, cmd := range pipeline {
		if len(cmd) == 0 {
			return nil, nil, fmt.Errorf("pipexec: empty command")
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	id := uuid.New()
	log := cfg.logger.With(
		zap.String("run_id", id.String()),
		zap.String("pipeline", pipeline.String()),
	)

	var here, later cleanupStack
	defer later.run()

	plumbing, err := buildPlumbing(cfg.stdin, cfg.stdout, cfg.stderr, &here, &later)
	if err != nil {
		here.run()
		log.Warn("pipexec: plumbing setup failed", zap.Error(err))
		return nil, nil, err
	}

	env := cfg.env
	if env == nil {
		env = os.Environ()
	}

	pids, err := launch(pipeline, plumbing.childFDs[0], plumbing.childFDs[1], plumbing.childFDs[2], env)
	here.run() // every child now holds its own dup; release the parent's child-facing copies
	if err != nil {
		log.Warn("pipexec: launch failed", zap.Error(err))
		return nil, nil, err
	}
	log.Debug("pipexec: launched", zap.Int("stages", len(pids)))

	if err := multiplex(plumbing.channels, cfg.trace); err != nil {
		log.Warn("pipexec: multiplex failed", zap.Error(err))
		reapAll(pids)
		return nil, nil, err
	}

	status, failedIdx, err := reap(pids)
	if err != nil {
		log.Warn("pipexec: reap failed", zap.Error(err))
		return nil, nil, err
	}

	if plumbing.chanOf[1] != nil {
		stdout = plumbing.chanOf[1].buf
	}
	if plumbing.chanOf[2] != nil {
		stderr = plumbing.chanOf[2].buf
	}

	if failedIdx >= 0 {
		failure := &ChildProcessFailure{
			Status:  status,
			Command: FormatCommands(pipeline[failedIdx]),
			Stderr:  stderr,
		}
		log.Info("pipexec: pipeline failed",
			zap.Int("status", status),
			zap.String("command", failure.Command),
		)
		return stdout, stderr, failure
	}

	log.Debug("pipexec: pipeline succeeded")
	return stdout, stderr, nil
}

// Execute runs a single command, equivalent to New(Command(argv)).Run(opts...).
func Execute(argv []string, opts ...Option) (stdout, stderr []byte, err error) {
	return Pipeline{Command(argv)}.Run(opts...)
}

// ExecuteAndRead runs a single command with its stdout captured, returning
// just the captured bytes. A convenience for the common "run this and give
// me its output" case.
func ExecuteAndRead(argv []string, opts ...Option) ([]byte, error) {
	opts = append([]Option{Stdout(Data(nil))}, opts...)
	stdout, _, err := Execute(argv, opts...)
	return stdout, err
}
