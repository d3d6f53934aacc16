package compare

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComparer(t *testing.T) *Comparer {
	t.Helper()
	return &Comparer{Dir: t.TempDir()}
}

func TestDigitMismatchesAreFree(t *testing.T) {
	c := newComparer(t)
	assert.True(t, c.FuzzyLineCompare("v1.2.3\n", "v1.9.3\n", 1, "", false))
	assert.True(t, c.FuzzyLineCompare("build 123 done\n", "build 789 done\n", 0, "", false))
	// A narrower digit run shortens the whole string; the length check
	// runs first, so the difference must still fit the threshold.
	assert.True(t, c.FuzzyLineCompare("build 123 done\n", "build 7 done\n", 2, "", false))
	assert.False(t, c.FuzzyLineCompare("build 123 done\n", "build 7 done\n", 1, "", false))
}

func TestNonDigitMismatchHitsThreshold(t *testing.T) {
	c := newComparer(t)
	assert.False(t, c.FuzzyLineCompare("abc\n", "abd\n", 0, "", false))
	assert.True(t, c.FuzzyLineCompare("abc\n", "abd\n", 1, "", false))
}

func TestLengthDifferenceShortCircuits(t *testing.T) {
	c := newComparer(t)
	assert.False(t, c.FuzzyLineCompare("short", "a much longer string", 3, "", false))
}

func TestIgnoredSubstringsSkipLines(t *testing.T) {
	c := newComparer(t)
	actual := "header\ntimestamp: 2024-06-01 completely different text here\nfooter\n"
	target := "header\ntimestamp: whatever the other run printed instead\nfooter\n"
	// The differing line mentions "timestamp" so it is skipped wholesale;
	// the length difference stays within the threshold.
	assert.True(t, c.FuzzyLineCompare(actual, target, 10, "timestamp:nonesuch", false))
	// Without the ignore list the line fails the comparison.
	assert.False(t, c.FuzzyLineCompare(actual, target, 10, "", false))
}

func TestFailureWritesDumpFiles(t *testing.T) {
	dir := t.TempDir()
	c := &Comparer{Dir: dir}

	require.False(t, c.FuzzyLineCompare("one\n", "two\n", 0, "", false))

	actual, err := os.ReadFile(filepath.Join(dir, ActualDumpFile))
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(actual))

	target, err := os.ReadFile(filepath.Join(dir, TargetDumpFile))
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(target))
}

func TestDumpOnRequestEvenWhenEqual(t *testing.T) {
	dir := t.TempDir()
	c := &Comparer{Dir: dir}

	require.True(t, c.FuzzyLineCompare("same\n", "same\n", 0, "", true))

	_, err := os.Stat(filepath.Join(dir, ActualDumpFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, TargetDumpFile))
	assert.NoError(t, err)
}

func TestNoDumpWhenEqualAndNotRequested(t *testing.T) {
	dir := t.TempDir()
	c := &Comparer{Dir: dir}

	require.True(t, c.FuzzyLineCompare("same\n", "same\n", 0, "", false))

	_, err := os.Stat(filepath.Join(dir, ActualDumpFile))
	assert.True(t, os.IsNotExist(err))
}

func TestAnsiEscapesAreStripped(t *testing.T) {
	c := newComparer(t)
	colored := "\x1b[31mred text\x1b[0m\n"
	plain := "red text\n"
	assert.True(t, c.FuzzyLineCompare(colored, plain, 0, "", false))
}

func TestTrailingRemainderCounts(t *testing.T) {
	c := newComparer(t)
	// Same length overall, one line longer than the other by two
	// characters; those leftovers count as bad characters.
	actual := "abcd\nx\n"
	target := "ab\nxcd\n"
	assert.False(t, c.FuzzyLineCompare(actual, target, 1, "", false))
}

func TestLineBadnessStopsEarly(t *testing.T) {
	long := strings.Repeat("a", 500)
	other := strings.Repeat("b", 500)
	assert.Greater(t, lineBadness(long, other, 3), 3)
}
