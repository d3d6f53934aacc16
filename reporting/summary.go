// Package reporting turns run results into human-readable artifacts: a
// per-run summary file on disk and a console table.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/unitrun/unitrun/runner"
	"github.com/unitrun/unitrun/status"
)

// SummarySink writes a plain-text run summary to
// <baseDir>/testrun-<runID>/summary.log.
type SummarySink struct {
	baseDir string
}

// NewSummarySink creates a summary sink rooted at baseDir.
func NewSummarySink(baseDir string) *SummarySink {
	return &SummarySink{baseDir: baseDir}
}

// Complete renders the run summary and writes it to disk, returning the
// path of the written file.
func (s *SummarySink) Complete(result *runner.Result) (string, error) {
	outputDir := filepath.Join(s.baseDir, "testrun-"+result.RunID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	content := Format(result)
	summaryFile := filepath.Join(outputDir, "summary.log")
	if err := os.WriteFile(summaryFile, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return summaryFile, nil
}

// Format renders a run result as indented text, grouped by test group.
func Format(result *runner.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test run %s\n", result.RunID)
	fmt.Fprintf(&b, "Status: %s\n", result.Status)
	fmt.Fprintf(&b, "Cases: %d  Sub-tests: %d  Failures: %d\n",
		len(result.Cases), result.Subtests, result.Failures)
	fmt.Fprintf(&b, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	if result.StoppedEarly {
		fmt.Fprintf(&b, "Stopped early: %s\n", result.StopCause)
	}
	if result.FirstFailed != nil {
		fmt.Fprintf(&b, "First failure: test %d (group %d, case %d, sub-test %d)\n",
			result.FirstFailed.Test, result.FirstFailed.Group,
			result.FirstFailed.Case, result.FirstFailed.Subtest)
	}

	for _, group := range groupNames(result) {
		fmt.Fprintf(&b, "\n%s\n", group)
		for _, cr := range result.Cases {
			if displayGroup(cr) != group {
				continue
			}
			fmt.Fprintf(&b, "  %s %s (%d sub-tests, %d errors, %s)\n",
				glyph(cr), displayCase(cr), cr.Subtests, cr.Errors,
				cr.Duration.Round(time.Millisecond))
			if cr.Err != nil {
				fmt.Fprintf(&b, "      %v\n", cr.Err)
			}
		}
	}
	return b.String()
}

func groupNames(result *runner.Result) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, cr := range result.Cases {
		name := displayGroup(cr)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func displayGroup(cr runner.CaseResult) string {
	if cr.GroupName != "" {
		return cr.GroupName
	}
	return fmt.Sprintf("group %d", cr.Group)
}

func displayCase(cr runner.CaseResult) string {
	if cr.CaseDesc != "" {
		return cr.CaseDesc
	}
	return fmt.Sprintf("case %d", cr.Case)
}

func glyph(cr runner.CaseResult) string {
	switch {
	case cr.Disposition == status.DispositionDidNotTest:
		return "- skip"
	case cr.Passed:
		return "✓ pass"
	default:
		return "✗ fail"
	}
}
