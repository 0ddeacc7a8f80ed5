package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "SUBREPORT"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: prefixEnvVar("PLAN"),
		Usage:   "Path to the run plan file (eg. 'plan.yaml'); empty runs every registered test",
	}
	FailFast = &cli.BoolFlag{
		Name:    "fail-fast",
		Aliases: []string{"x"},
		Value:   false,
		EnvVars: prefixEnvVar("FAIL_FAST"),
		Usage:   "Stop the run after the first failure",
	}
	Capture = &cli.StringFlag{
		Name:    "capture",
		Value:   "sys",
		EnvVars: prefixEnvVar("CAPTURE"),
		Usage:   "Output capture mode: 'sys' or 'none'",
	}
	LogCapture = &cli.BoolFlag{
		Name:    "log-capture",
		Value:   true,
		EnvVars: prefixEnvVar("LOG_CAPTURE"),
		Usage:   "Capture log records emitted during tests and subtests",
	}
	NoSubtestGlyphs = &cli.BoolFlag{
		Name:    "no-subtest-glyphs",
		Value:   false,
		EnvVars: prefixEnvVar("NO_SUBTEST_GLYPHS"),
		Usage:   "Disables per-subtest progress characters in non-verbose mode",
	}
	DebugOnFailure = &cli.BoolFlag{
		Name:    "debug-on-failure",
		Value:   false,
		EnvVars: prefixEnvVar("DEBUG_ON_FAILURE"),
		Usage:   "Invoke the interactive-exception hook when a test or subtest fails",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Value:   false,
		EnvVars: prefixEnvVar("VERBOSE"),
		Usage:   "One status line per report instead of progress characters",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Plan,
	FailFast,
	Capture,
	LogCapture,
	NoSubtestGlyphs,
	DebugOnFailure,
	Verbose,
	RunInterval,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
