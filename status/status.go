// Package status implements the per-test-case record of a run: the (group,
// case) identity, the sub-test cursor, pass/fail accounting and the
// disposition state machine that decides how a case ends.
package status

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/unitrun/unitrun/options"
)

// Disposition is the case-level outcome state.
type Disposition string

const (
	// DispositionContinue is the initial, non-terminal state; sub-tests
	// keep running while it holds.
	DispositionContinue Disposition = "continue"
	// DispositionDidNotTest marks a case skipped by a selection filter.
	// Skipping is not a failure.
	DispositionDidNotTest Disposition = "did-not-test"
	// DispositionFailed marks a case that failed.
	DispositionFailed Disposition = "failed"
	// DispositionQuitted marks a premature stop requested by the user that
	// does not by itself force an overall failure.
	DispositionQuitted Disposition = "quitted"
	// DispositionAborted marks a premature stop that always counts as a
	// failure.
	DispositionAborted Disposition = "aborted"
)

// Terminal reports whether the disposition ends a case's processing.
func (d Disposition) Terminal() bool {
	return d != DispositionContinue
}

func (d Disposition) String() string {
	return string(d)
}

// MaxNameLen bounds group names and case descriptions.
const MaxNameLen = 128

// DefaultSubtestName is recorded when NextSubtest is called without a name.
const DefaultSubtestName = "unnamed"

// Config carries the collaborators a Status is built from.
type Config struct {
	Options   *options.Options
	Group     int
	Case      int
	GroupName string
	CaseDesc  string
	Prompter  Prompter
	Log       log.Logger
}

// Status is the mutable record of a single test case invocation. It is
// created by the runner, mutated exclusively by the test function it is
// handed to, and consumed by the runner when the function returns.
type Status struct {
	opts      *options.Options
	group     int
	tcase     int
	groupName string
	caseDesc  string

	subtest     int
	subtestName string

	testResult    bool
	errorCount    int
	failedSubtest int // sticky: ordinal of the first failing sub-test
	deliberate    bool

	disposition Disposition

	start    time.Time
	end      time.Time
	duration time.Duration

	prompter Prompter
	log      log.Logger
	now      func() time.Time
}

// New builds a Status for a (group, case) pair under the given options. A
// Status is valid only when group and case are both positive; an invalid or
// filtered-out Status starts in the did-not-test disposition and must never
// be treated as a failure.
func New(cfg Config) *Status {
	opts := cfg.Options
	if opts == nil {
		opts = options.New()
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}

	s := &Status{
		opts:        opts,
		group:       cfg.Group,
		tcase:       cfg.Case,
		groupName:   clipName(cfg.GroupName),
		caseDesc:    clipName(cfg.CaseDesc),
		testResult:  true,
		disposition: DispositionContinue,
		prompter:    cfg.Prompter,
		log:         logger,
		now:         time.Now,
	}

	if !s.Valid() || !s.selected() {
		s.disposition = DispositionDidNotTest
	}

	if s.prompter == nil {
		s.prompter = ForOptions(opts, os.Stdin, os.Stdout)
	}
	if s.disposition == DispositionContinue &&
		(opts.Interactive || opts.CasePause || opts.ResponseBefore() != 0) {
		if err := s.AskBefore(fmt.Sprintf("run %s", s.label())); err != nil {
			s.log.Warn("before-prompt failed", "group", s.group, "case", s.tcase, "err", err)
		}
	}

	s.StartTimer()
	return s
}

// label names the case for prompts and logs.
func (s *Status) label() string {
	label := fmt.Sprintf("case %d.%d", s.group, s.tcase)
	if s.caseDesc != "" {
		label += " " + s.caseDesc
	}
	return label
}

// selected applies the single-selection filters and the optional plan to the
// case identity.
func (s *Status) selected() bool {
	if !s.opts.GroupFilter().Matches(s.group, s.groupName) {
		return false
	}
	if !s.opts.CaseFilter().Matches(s.tcase, s.caseDesc) {
		return false
	}
	if s.opts.Plan != nil && !s.opts.Plan.Permits(s.group, s.groupName, s.tcase, s.caseDesc) {
		return false
	}
	return true
}

// Valid reports whether the case identity is well-formed.
func (s *Status) Valid() bool {
	return s.group > 0 && s.tcase > 0
}

// Group returns the group number.
func (s *Status) Group() int { return s.group }

// Case returns the case number within the group.
func (s *Status) Case() int { return s.tcase }

// GroupName returns the group name.
func (s *Status) GroupName() string { return s.groupName }

// CaseDescription returns the case description.
func (s *Status) CaseDescription() string { return s.caseDesc }

// Disposition returns the current outcome state.
func (s *Status) Disposition() Disposition { return s.disposition }

// Subtest returns the current sub-test ordinal; 0 means no sub-test has
// started yet.
func (s *Status) Subtest() int { return s.subtest }

// SubtestName returns the name of the current sub-test.
func (s *Status) SubtestName() string { return s.subtestName }

// Result returns the outcome of the most recent pass/fail call.
func (s *Status) Result() bool { return s.testResult }

// ErrorCount returns the number of failed sub-tests so far.
func (s *Status) ErrorCount() int { return s.errorCount }

// FailedSubtest returns the ordinal of the first failing sub-test, or 0 if
// none failed yet.
func (s *Status) FailedSubtest() int { return s.failedSubtest }

// Deliberate reports whether the most recent failure was requested through
// FailDeliberately. Only the framework's own self-tests consult this.
func (s *Status) Deliberate() bool { return s.deliberate }

// Options returns the options snapshot the case runs under.
func (s *Status) Options() *options.Options { return s.opts }

// NextSubtest advances to the next sub-test. It returns false, leaving the
// cursor untouched, when the run is in summarize mode or when an active
// sub-test filter does not match the upcoming sub-test; the caller should
// then skip the sub-test's body silently.
func (s *Status) NextSubtest(name string) bool {
	if s.opts.Summarize {
		return false
	}
	if name == "" {
		name = DefaultSubtestName
	}
	upcoming := s.subtest + 1
	if f := s.opts.SubtestFilter(); f.Active() && !f.Matches(upcoming, name) {
		return false
	}
	s.subtest = upcoming
	s.subtestName = name
	if s.opts.ShowStepNumbers {
		s.log.Info("sub-test", "group", s.groupName, "case", s.caseDesc, "step", s.subtest, "name", name)
	}
	return true
}

// Pass records the outcome of the current sub-test. A false flag increments
// the error count and, on the first failure only, pins the failed sub-test
// ordinal. The disposition is unaffected.
func (s *Status) Pass(flag bool) bool {
	s.testResult = flag
	if !flag {
		s.errorCount++
		if s.failedSubtest == 0 {
			s.failedSubtest = s.subtest
		}
		if s.opts.ShowProgress || s.opts.Verbose {
			s.log.Warn("sub-test failed",
				"group", s.groupName,
				"case", s.caseDesc,
				"subtest", s.subtest,
				"name", s.subtestName)
		}
	}
	return flag
}

// Fail records a failure of the current sub-test.
func (s *Status) Fail() {
	s.Pass(false)
}

// FailDeliberately records a failure that the test asked for on purpose.
// The framework's own self-tests use the marker to tell deliberate failures
// from real ones.
func (s *Status) FailDeliberately() {
	s.deliberate = true
	s.Pass(false)
}

// Ignore consults the disposition and reports whether the caller should skip
// the remaining sub-tests. Skipped and quitted cases are not penalized;
// aborted cases are forced to a failing result.
func (s *Status) Ignore() bool {
	switch s.disposition {
	case DispositionDidNotTest, DispositionQuitted:
		s.testResult = true
		return true
	case DispositionAborted:
		s.testResult = false
		return true
	}
	return false
}

// CanProceed reports whether the case may keep executing sub-tests.
func (s *Status) CanProceed() bool {
	return s.disposition != DispositionAborted && s.disposition != DispositionDidNotTest
}

// IsOkay reports whether the case counts as "not a real failure". Continue
// and did-not-test are always okay; quitted is okay iff the most recent test
// result was a pass; failed and aborted never are.
func (s *Status) IsOkay() bool {
	switch s.disposition {
	case DispositionContinue, DispositionDidNotTest:
		return true
	case DispositionQuitted:
		return s.testResult
	}
	return false
}

// Reset forces the disposition back to continue, clearing nothing else. It
// lets a case survive a prompt that requested premature termination without
// losing the error counts collected so far.
func (s *Status) Reset() {
	s.disposition = DispositionContinue
}

// MarkFailed moves the case into the failed disposition.
func (s *Status) MarkFailed() {
	s.disposition = DispositionFailed
	s.testResult = false
}

// StartTimer records the current time as the case's start and clears the
// end time.
func (s *Status) StartTimer() {
	s.start = s.now()
	s.end = time.Time{}
}

// TimeDelta computes the time elapsed since the timer was started and
// stores it as the case duration. With reset set, the start time is re-armed
// to now, giving repeated interval ("lap") measurements.
func (s *Status) TimeDelta(reset bool) time.Duration {
	now := s.now()
	s.end = now
	s.duration = now.Sub(s.start)
	if reset {
		s.start = now
	}
	return s.duration
}

// Duration returns the last computed time delta.
func (s *Status) Duration() time.Duration { return s.duration }

func clipName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}
