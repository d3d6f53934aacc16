// Package options holds the configuration snapshot a test run is executed
// under. An Options value is built once, from the command line or from code,
// and is read-only for the duration of a run; it never mutates test outcomes
// itself.
package options

import (
	"fmt"
	"time"
)

// MaxSleepTime bounds the configurable inter-test sleep.
const MaxSleepTime = time.Hour

// Response characters accepted for the "before" prompt.
const (
	ResponseContinue = 'c'
	ResponseSkip     = 's'
	ResponseAbort    = 'a'
	ResponseQuit     = 'q'
)

// Response characters accepted for the "after" prompt. Abort and quit are
// shared with the "before" set.
const (
	ResponsePass = 'p'
	ResponseFail = 'f'
)

// CasePermitter decides whether a (group, case) identity is allowed to run.
// A test plan loaded from file is the usual implementation.
type CasePermitter interface {
	Permits(group int, groupName string, caseOrdinal int, caseName string) bool
}

// Options is the configuration snapshot for a test run.
type Options struct {
	// Output policy.
	Verbose         bool
	ShowValues      bool
	ShowStepNumbers bool
	ShowProgress    bool
	Beep            bool
	Summarize       bool

	// Run policy.
	StopOnError  bool
	BatchMode    bool
	Interactive  bool
	NeedSubtests bool
	ForceFailure bool
	CasePause    bool
	Simulated    bool

	// Plan, when non-nil, restricts the run to the cases it permits.
	Plan CasePermitter

	group   Filter
	tcase   Filter
	subtest Filter

	sleepTime   time.Duration
	currentTest int

	responseBefore byte
	responseAfter  byte
}

// New returns an Options value with no filters active and the test sequence
// counter at its "not started" sentinel.
func New() *Options {
	return &Options{currentTest: -1}
}

// GroupFilter returns the single-group selection filter.
func (o *Options) GroupFilter() Filter { return o.group }

// CaseFilter returns the single-case selection filter.
func (o *Options) CaseFilter() Filter { return o.tcase }

// SubtestFilter returns the single-sub-test selection filter.
func (o *Options) SubtestFilter() Filter { return o.subtest }

// SetGroupFilter installs a pre-built group filter.
func (o *Options) SetGroupFilter(f Filter) { o.group = f }

// SetCaseFilter installs a pre-built case filter.
func (o *Options) SetCaseFilter(f Filter) { o.tcase = f }

// SetSubtestFilter installs a pre-built sub-test filter.
func (o *Options) SetSubtestFilter(f Filter) { o.subtest = f }

// SetGroupOrdinal selects a single group by ordinal. Out-of-range values
// clear the filter and return an error.
func (o *Options) SetGroupOrdinal(n int) error {
	f, err := OrdinalFilter(n, MaxGroupOrdinal)
	o.group = f
	return err
}

// SetCaseOrdinal selects a single case by ordinal. Out-of-range values clear
// the filter and return an error.
func (o *Options) SetCaseOrdinal(n int) error {
	f, err := OrdinalFilter(n, MaxCaseOrdinal)
	o.tcase = f
	return err
}

// SetSubtestOrdinal selects a single sub-test by ordinal. Out-of-range
// values clear the filter and return an error.
func (o *Options) SetSubtestOrdinal(n int) error {
	f, err := OrdinalFilter(n, MaxSubtestOrdinal)
	o.subtest = f
	return err
}

// IsPartialRun reports whether any selection filter is active.
func (o *Options) IsPartialRun() bool {
	return o.group.Active() || o.tcase.Active() || o.subtest.Active()
}

// SleepTime returns the configured inter-test sleep.
func (o *Options) SleepTime() time.Duration { return o.sleepTime }

// SetSleepTime configures the inter-test sleep. Values outside
// [0, MaxSleepTime] reset the sleep to zero and return an error.
func (o *Options) SetSleepTime(d time.Duration) error {
	if d < 0 || d > MaxSleepTime {
		o.sleepTime = 0
		return fmt.Errorf("sleep time %s out of range [0, %s]", d, MaxSleepTime)
	}
	o.sleepTime = d
	return nil
}

// CurrentTest returns the test sequence counter; -1 means the run has not
// started.
func (o *Options) CurrentTest() int { return o.currentTest }

// SetCurrentTest updates the test sequence counter. The runner calls this on
// the per-test snapshot it hands to each test function.
func (o *Options) SetCurrentTest(n int) { o.currentTest = n }

// ResponseBefore returns the automated response character for "before"
// prompts; 0 means "prompt interactively".
func (o *Options) ResponseBefore() byte { return o.responseBefore }

// ResponseAfter returns the automated response character for "after"
// prompts; 0 means "prompt interactively".
func (o *Options) ResponseAfter() byte { return o.responseAfter }

// SetResponseBefore configures the automated response for "before" prompts.
// Input is case-insensitive; characters outside {c,s,a,q} leave the previous
// value unchanged and return an error. 0 clears the response.
func (o *Options) SetResponseBefore(c byte) error {
	c = lowerResponse(c)
	switch c {
	case 0, ResponseContinue, ResponseSkip, ResponseAbort, ResponseQuit:
		o.responseBefore = c
		return nil
	}
	return fmt.Errorf("unsupported before-response character %q", c)
}

// SetResponseAfter configures the automated response for "after" prompts.
// Input is case-insensitive; characters outside {p,f,a,q} leave the previous
// value unchanged and return an error. 0 clears the response.
func (o *Options) SetResponseAfter(c byte) error {
	c = lowerResponse(c)
	switch c {
	case 0, ResponsePass, ResponseFail, ResponseAbort, ResponseQuit:
		o.responseAfter = c
		return nil
	}
	return fmt.Errorf("unsupported after-response character %q", c)
}

// Snapshot returns a copy of the options. The runner hands each test
// function its own snapshot so the shared value never changes mid-run.
func (o *Options) Snapshot() *Options {
	cp := *o
	return &cp
}

func lowerResponse(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
