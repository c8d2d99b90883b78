// Command pipexec is a thin demonstration CLI around the pipexec library:
// it runs a single pipeline of commands separated by a literal "|"
// argument, with stdin/stdout/stderr connected to its own, and exits with
// the failing stage's status if any.
//
// Example:
//
//	pipexec /bin/cat /etc/hosts '|' /bin/tr a-z A-Z
//
// This is not a shell: there is no globbing, no quoting, no redirection.
// Each "|"-delimited group is passed verbatim as argv to its command (the
// "|" itself must be quoted so the invoking shell passes it through). Pass
// -debug before the pipeline to dump a field-level breakdown of any
// failure. Without -debug, a failing stage is reported only through its
// own stderr and the exit status; any other error is printed one line per
// layer of its error chain.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/edirooss/pipexec"
	"github.com/edirooss/pipexec/pkg/pipedebug"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	debug := flag.Bool("debug", false, "dump a field-level breakdown of any failure (via pipedebug.PrintErrChainDebug)")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("pipexec")

	pipeline, err := parsePipeline(flag.Args())
	if err != nil {
		log.Fatal("invalid pipeline", zap.Error(err))
	}

	_, _, err = pipeline.Run(
		pipexec.Stdin(pipexec.FD(0)),
		pipexec.Stdout(pipexec.FD(1)),
		pipexec.Stderr(pipexec.FD(2)),
		pipexec.Logger(log),
	)
	if err == nil {
		return
	}

	var failure *pipexec.ChildProcessFailure
	isFailure := errors.As(err, &failure)

	switch {
	case *debug:
		pipedebug.PrintErrChainDebug(os.Stderr, err)
	case !isFailure:
		pipedebug.PrintErrChain(os.Stderr, err)
	}

	if isFailure {
		os.Exit(failure.Status)
	}
	os.Exit(1)
}

func parsePipeline(args []string) (pipexec.Pipeline, error) {
	var pipeline pipexec.Pipeline
	var cur pipexec.Command

	for _, arg := range args {
		if arg == "|" {
			if len(cur) == 0 {
				return nil, errors.New("empty command before |")
			}
			pipeline = append(pipeline, cur)
			cur = nil
			continue
		}
		cur = append(cur, arg)
	}
	if len(cur) == 0 {
		return nil, errors.New("empty command")
	}
	pipeline = append(pipeline, cur)
	return pipeline, nil
}
