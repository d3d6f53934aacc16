// Package exitcodes defines the standard exit codes used by unitrun.
package exitcodes

// Exit code constants used by the unitrun binary:
//
// * Success (0): every executed test case passed
// * TestFailure (1): one or more test cases failed or a run was aborted
// * RuntimeErr (2): configuration errors, panics or other runtime failures
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
