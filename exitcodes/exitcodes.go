// Package exitcodes defines the process exit codes.
package exitcodes

const (
	// Success indicates every test and subtest passed (or was skipped).
	Success = 0
	// TestFailure indicates at least one test or subtest failed.
	TestFailure = 1
	// RuntimeErr indicates the harness itself failed (configuration error,
	// panic outside test code, etc.).
	RuntimeErr = 2
)
