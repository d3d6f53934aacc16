package unitrun

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/unitrun/unitrun/runner"
	"github.com/unitrun/unitrun/status"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(result *runner.Result) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
	}
}

// FormatResults renders a result table to stdout, one row per executed case
// grouped under its test group.
func (f *ConsoleResultFormatter) FormatResults(result *runner.Result) error {
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Unit Test Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Group", "Case", "Duration", "Sub-tests", "Errors", "Status",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Group", AutoMerge: true},
		{Name: "Case", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Sub-tests", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
	})

	lastGroup := -1
	for _, cr := range result.Cases {
		group := ""
		if cr.Group != lastGroup {
			group = groupLabel(cr)
			lastGroup = cr.Group
		}

		t.AppendRow(table.Row{
			group,
			caseLabel(cr),
			formatDuration(cr.Duration),
			cr.Subtests,
			cr.Errors,
			caseStatusString(cr),
		})
	}

	if result.Status == runner.RunStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d cases", len(result.Cases)),
		formatDuration(result.Duration),
		result.Subtests,
		result.Failures,
		runStatusString(result.Status),
	})

	t.Render()

	return nil
}

func groupLabel(cr runner.CaseResult) string {
	if cr.GroupName != "" {
		return fmt.Sprintf("%d %s", cr.Group, cr.GroupName)
	}
	return fmt.Sprintf("%d", cr.Group)
}

func caseLabel(cr runner.CaseResult) string {
	if cr.CaseDesc != "" {
		return fmt.Sprintf("%d %s", cr.Case, cr.CaseDesc)
	}
	return fmt.Sprintf("%d", cr.Case)
}

func caseStatusString(cr runner.CaseResult) string {
	switch cr.Disposition {
	case status.DispositionDidNotTest:
		return "- skip"
	case status.DispositionQuitted:
		if cr.Passed {
			return "✓ pass (quit)"
		}
		return "✗ fail (quit)"
	case status.DispositionAborted:
		return "✗ abort"
	default:
		if cr.Passed {
			return "✓ pass"
		}
		return "✗ fail"
	}
}

func runStatusString(s runner.RunStatus) string {
	if s == runner.RunStatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
