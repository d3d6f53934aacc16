// Package selftest is the built-in suite the unitrun binary ships with. It
// exercises the framework through its public surface: the status state
// machine, the check helpers, the timer and the fuzzy comparison. The suite
// passes by construction; the --force-failure flag makes it request one
// deliberate failure so that failure reporting can be verified end to end.
package selftest

import (
	"os"

	"github.com/unitrun/unitrun/compare"
	"github.com/unitrun/unitrun/options"
	"github.com/unitrun/unitrun/runner"
	"github.com/unitrun/unitrun/status"
)

// Suite returns the built-in test functions in execution order.
func Suite() []runner.TestFunc {
	return []runner.TestFunc{
		Checks,
		StateMachine,
		Timing,
		Comparison,
		DeliberateFailure,
	}
}

// Checks exercises the exact-equality check helpers.
func Checks(o *options.Options) *status.Status {
	st := status.New(status.Config{
		Options:   o,
		Group:     1,
		Case:      1,
		GroupName: "framework",
		CaseDesc:  "check helpers",
	})

	if st.Ignore() {
		return st
	}

	if st.NextSubtest("int equality") {
		st.CheckInt(42, 42)
	}
	if st.NextSubtest("bool equality") {
		st.CheckBool(true, true)
	}
	if st.NextSubtest("string equality") {
		st.CheckString("unitrun", "unitrun")
	}
	return st
}

// StateMachine exercises disposition transitions on a scratch status and
// reports the observations on its own status.
func StateMachine(o *options.Options) *status.Status {
	st := status.New(status.Config{
		Options:   o,
		Group:     1,
		Case:      2,
		GroupName: "framework",
		CaseDesc:  "status transitions",
	})

	if st.Ignore() {
		return st
	}

	// The scratch status is never returned; it exists to be poked at.
	scratch := status.New(status.Config{Group: 99, Case: 99})

	if st.NextSubtest("fresh status proceeds") {
		st.CheckBool(true, scratch.CanProceed())
	}
	if st.NextSubtest("first failure is pinned") {
		scratch.NextSubtest("")
		scratch.Pass(false)
		scratch.NextSubtest("")
		scratch.Pass(true)
		st.CheckBool(true, scratch.Result())
		st.CheckInt(1, scratch.FailedSubtest())
		st.CheckInt(1, scratch.ErrorCount())
	}
	if st.NextSubtest("reset clears disposition only") {
		scratch.MarkFailed()
		scratch.Reset()
		st.CheckString(string(status.DispositionContinue), string(scratch.Disposition()))
		st.CheckInt(1, scratch.ErrorCount())
	}
	return st
}

// Timing exercises the lap timer.
func Timing(o *options.Options) *status.Status {
	st := status.New(status.Config{
		Options:   o,
		Group:     1,
		Case:      3,
		GroupName: "framework",
		CaseDesc:  "lap timer",
	})

	if st.Ignore() {
		return st
	}

	if st.NextSubtest("delta is non-negative") {
		st.StartTimer()
		st.CheckBool(true, st.TimeDelta(true) >= 0)
	}
	if st.NextSubtest("delta resets") {
		st.CheckBool(true, st.TimeDelta(false) >= 0)
	}
	return st
}

// Comparison exercises the fuzzy line comparison.
func Comparison(o *options.Options) *status.Status {
	st := status.New(status.Config{
		Options:   o,
		Group:     2,
		Case:      1,
		GroupName: "compare",
		CaseDesc:  "fuzzy line comparison",
	})

	if st.Ignore() {
		return st
	}

	c := &compare.Comparer{Dir: os.TempDir()}

	if st.NextSubtest("digit substitutions are free") {
		ok := c.FuzzyLineCompare("version 1.2.3 ready\n", "version 9.8.7 ready\n", 0, "", false)
		st.CheckBool(true, ok)
	}
	if st.NextSubtest("ignored lines are skipped") {
		ok := c.FuzzyLineCompare("timestamp now\npayload x\n", "timestamp then\npayload x\n", 0, "timestamp", false)
		st.CheckBool(true, ok)
	}
	if st.NextSubtest("real differences fail") {
		ok := c.FuzzyLineCompare("alpha\n", "omega\n", 1, "", false)
		st.CheckBool(false, ok)
	}
	return st
}

// DeliberateFailure passes unless --force-failure is set, in which case it
// records exactly one deliberate failure so that failure paths can be
// observed on an otherwise green suite.
func DeliberateFailure(o *options.Options) *status.Status {
	st := status.New(status.Config{
		Options:   o,
		Group:     2,
		Case:      2,
		GroupName: "compare",
		CaseDesc:  "deliberate failure",
	})

	if st.Ignore() {
		return st
	}

	if st.NextSubtest("requested failure") {
		if o.ForceFailure {
			st.FailDeliberately()
		} else {
			st.Pass(true)
		}
	}
	return st
}
