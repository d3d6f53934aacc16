// Package compare provides the loose text comparison used by test authors:
// a line-oriented equality check that tolerates a bounded number of
// character mismatches and treats digit-for-digit substitutions as free, so
// that output differing only in version numbers or counters still matches.
package compare

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/go-cmp/cmp"
)

// Scratch files written next to the working directory when a comparison
// fails or a dump is requested. They are a debugging side-channel, not a
// stable format.
const (
	ActualDumpFile = "actual_result.tmp"
	TargetDumpFile = "target_result.tmp"
)

// Comparer performs fuzzy line comparisons. The zero value writes scratch
// dumps to the current directory and logs nowhere.
type Comparer struct {
	// Dir is the directory scratch dumps are written to; empty means the
	// current working directory.
	Dir string
	Log log.Logger
}

// FuzzyLineCompare reports whether actual is close enough to target.
//
// Both strings are compared line by line. Lines containing any of the
// colon-delimited ignore substrings are skipped entirely. Within a line,
// mismatching characters count against the threshold, except that a
// digit-vs-digit mismatch is free and skips past the digit runs on both
// sides. The comparison fails fast when the overall length difference
// exceeds the threshold, or when any line accumulates more than threshold
// bad characters. On failure, or when dump is set, both strings are written
// to the scratch files for offline diffing.
func (c *Comparer) FuzzyLineCompare(actual, target string, threshold int, ignore string, dump bool) bool {
	logger := c.Log
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}

	actual = stripansi.Strip(actual)
	target = stripansi.Strip(target)

	ok := c.linesMatch(actual, target, threshold, ignore, logger)
	if !ok || dump {
		c.writeDumps(actual, target, logger)
	}
	return ok
}

func (c *Comparer) linesMatch(actual, target string, threshold int, ignore string, logger log.Logger) bool {
	lengthDiff := len(actual) - len(target)
	if lengthDiff < 0 {
		lengthDiff = -lengthDiff
	}
	if lengthDiff > threshold {
		logger.Debug("fuzzy compare: length difference exceeds threshold",
			"actual", len(actual), "target", len(target), "threshold", threshold)
		return false
	}

	ignores := splitIgnores(ignore)
	actualLines := strings.Split(actual, "\n")
	targetLines := strings.Split(target, "\n")

	pairs := len(actualLines)
	if len(targetLines) < pairs {
		pairs = len(targetLines)
	}

	for i := 0; i < pairs; i++ {
		a, t := actualLines[i], targetLines[i]
		if containsAny(a, ignores) || containsAny(t, ignores) {
			continue
		}
		if bad := lineBadness(a, t, threshold); bad > threshold {
			logger.Debug("fuzzy compare: line exceeds threshold",
				"line", i+1, "bad", bad, "threshold", threshold, "diff", cmp.Diff(t, a))
			return false
		}
	}
	return true
}

// lineBadness counts the character mismatches of a line pair that the
// digit-skip rule cannot excuse. Counting stops early once the threshold is
// exceeded.
func lineBadness(a, t string, threshold int) int {
	bad := 0
	i, j := 0, 0
	for i < len(a) && j < len(t) {
		ca, ct := a[i], t[j]
		if ca == ct {
			i++
			j++
			continue
		}
		if isDigit(ca) && isDigit(ct) {
			// Numeric fields may differ freely; step past both runs.
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(t) && isDigit(t[j]) {
				j++
			}
			continue
		}
		bad++
		if bad > threshold {
			return bad
		}
		i++
		j++
	}
	// Leftover characters on either side are mismatches too.
	bad += (len(a) - i) + (len(t) - j)
	return bad
}

func (c *Comparer) writeDumps(actual, target string, logger log.Logger) {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	for _, dump := range []struct {
		name string
		body string
	}{
		{name: ActualDumpFile, body: actual},
		{name: TargetDumpFile, body: target},
	} {
		path := filepath.Join(dir, dump.name)
		if err := os.WriteFile(path, []byte(dump.body), 0644); err != nil {
			logger.Warn("failed to write comparison dump", "path", path, "err", err)
		}
	}
}

func splitIgnores(ignore string) []string {
	if ignore == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(ignore, ":") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsAny(line string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
