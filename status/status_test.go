package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitrun/unitrun/options"
)

func newStatus(t *testing.T, opts *options.Options) *Status {
	t.Helper()
	return New(Config{
		Options:   opts,
		Group:     1,
		Case:      1,
		GroupName: "G",
		CaseDesc:  "C",
	})
}

func TestUnfilteredConstruction(t *testing.T) {
	s := newStatus(t, options.New())

	assert.True(t, s.Valid())
	assert.True(t, s.CanProceed())
	assert.Equal(t, DispositionContinue, s.Disposition())
	assert.True(t, s.Result())
	assert.Zero(t, s.Subtest())
}

func TestGroupFilterMismatchSkipsCase(t *testing.T) {
	opts := options.New()
	require.NoError(t, opts.SetGroupOrdinal(2))

	s := newStatus(t, opts)
	assert.True(t, s.Valid())
	assert.False(t, s.CanProceed())
	assert.Equal(t, DispositionDidNotTest, s.Disposition())
	// A skipped case is never a failure.
	assert.True(t, s.IsOkay())
	assert.Zero(t, s.ErrorCount())
}

func TestNameFilterMatchesCase(t *testing.T) {
	opts := options.New()
	opts.SetCaseFilter(options.NameFilter("C"))
	s := newStatus(t, opts)
	assert.Equal(t, DispositionContinue, s.Disposition())

	opts = options.New()
	opts.SetCaseFilter(options.NameFilter("other"))
	s = newStatus(t, opts)
	assert.Equal(t, DispositionDidNotTest, s.Disposition())
}

func TestInvalidIdentityIsNotAFailure(t *testing.T) {
	s := New(Config{Options: options.New(), Group: 0, Case: 1})

	assert.False(t, s.Valid())
	assert.False(t, s.CanProceed())
	assert.Equal(t, DispositionDidNotTest, s.Disposition())
	assert.True(t, s.IsOkay())
}

func TestSubtestSequencingAndStickyFirstFailure(t *testing.T) {
	s := newStatus(t, options.New())

	require.True(t, s.NextSubtest("A"))
	assert.Equal(t, 1, s.Subtest())
	assert.Equal(t, "A", s.SubtestName())

	s.Pass(false)
	assert.Equal(t, 1, s.ErrorCount())
	assert.Equal(t, 1, s.FailedSubtest())

	require.True(t, s.NextSubtest("B"))
	assert.Equal(t, 2, s.Subtest())

	s.Pass(true)
	assert.True(t, s.Result())

	s.Pass(false)
	assert.Equal(t, 2, s.ErrorCount())
	// The failed-subtest ordinal is sticky: the first failure wins.
	assert.Equal(t, 1, s.FailedSubtest())

	// Pass/fail never moves the disposition.
	assert.Equal(t, DispositionContinue, s.Disposition())
}

func TestNextSubtestDefaultsName(t *testing.T) {
	s := newStatus(t, options.New())
	require.True(t, s.NextSubtest(""))
	assert.Equal(t, DefaultSubtestName, s.SubtestName())
}

func TestNextSubtestSummarizeMode(t *testing.T) {
	opts := options.New()
	opts.Summarize = true

	s := newStatus(t, opts)
	assert.False(t, s.NextSubtest("A"))
	assert.Zero(t, s.Subtest())
}

func TestNextSubtestFilter(t *testing.T) {
	opts := options.New()
	require.NoError(t, opts.SetSubtestOrdinal(2))

	s := newStatus(t, opts)
	assert.False(t, s.NextSubtest("first"))
	assert.Zero(t, s.Subtest())

	// The cursor did not advance, so the upcoming ordinal is still 1 until
	// the filter matches; a second attempt still targets ordinal 1.
	assert.False(t, s.NextSubtest("first again"))
	assert.Zero(t, s.Subtest())
}

func TestFailDeliberately(t *testing.T) {
	s := newStatus(t, options.New())
	require.True(t, s.NextSubtest("on purpose"))

	s.FailDeliberately()
	assert.True(t, s.Deliberate())
	assert.Equal(t, 1, s.ErrorCount())
	assert.Equal(t, 1, s.FailedSubtest())
}

func TestIgnore(t *testing.T) {
	tests := []struct {
		name        string
		disposition Disposition
		wantSkip    bool
		wantResult  bool
	}{
		{name: "continue", disposition: DispositionContinue, wantSkip: false, wantResult: true},
		{name: "failed", disposition: DispositionFailed, wantSkip: false, wantResult: false},
		{name: "did not test", disposition: DispositionDidNotTest, wantSkip: true, wantResult: true},
		{name: "quitted", disposition: DispositionQuitted, wantSkip: true, wantResult: true},
		{name: "aborted", disposition: DispositionAborted, wantSkip: true, wantResult: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStatus(t, options.New())
			s.disposition = tt.disposition
			if tt.disposition == DispositionFailed {
				s.MarkFailed()
			}

			assert.Equal(t, tt.wantSkip, s.Ignore())
			assert.Equal(t, tt.wantResult, s.Result())
		})
	}
}

func TestIsOkayQuittedFollowsResult(t *testing.T) {
	s := newStatus(t, options.New())
	s.disposition = DispositionQuitted
	assert.True(t, s.IsOkay())

	s.Pass(false)
	s.disposition = DispositionQuitted
	assert.False(t, s.IsOkay())
}

func TestResetKeepsCounters(t *testing.T) {
	s := newStatus(t, options.New())
	require.True(t, s.NextSubtest("A"))
	s.Pass(false)
	s.disposition = DispositionAborted

	s.Reset()
	assert.Equal(t, DispositionContinue, s.Disposition())
	assert.Equal(t, 1, s.ErrorCount())
	assert.Equal(t, 1, s.FailedSubtest())
}

func TestAccessorIdempotence(t *testing.T) {
	s := newStatus(t, options.New())
	require.True(t, s.NextSubtest("A"))
	s.Pass(false)
	s.TimeDelta(false)

	for i := 0; i < 3; i++ {
		assert.Equal(t, DispositionContinue, s.Disposition())
		assert.Equal(t, 1, s.ErrorCount())
		assert.Equal(t, 1, s.FailedSubtest())
		assert.Equal(t, s.Duration(), s.Duration())
	}
}

func TestTimerLapSemantics(t *testing.T) {
	s := newStatus(t, options.New())

	current := time.Unix(1000, 0)
	s.now = func() time.Time { return current }
	s.StartTimer()

	current = current.Add(40 * time.Millisecond)
	assert.Equal(t, 40*time.Millisecond, s.TimeDelta(true))
	assert.Equal(t, 40*time.Millisecond, s.Duration())

	// The reset re-armed the start time, so the next lap counts from here.
	current = current.Add(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, s.TimeDelta(false))

	// Without a reset the measurement stays anchored to the same start.
	current = current.Add(5 * time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, s.TimeDelta(false))
}

func TestClipName(t *testing.T) {
	long := make([]byte, MaxNameLen+32)
	for i := range long {
		long[i] = 'x'
	}
	s := New(Config{Options: options.New(), Group: 1, Case: 1, GroupName: string(long)})
	assert.Len(t, s.GroupName(), MaxNameLen)
}
