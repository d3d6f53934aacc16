package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unitrun/unitrun/status"
)

const (
	MetricsNamespace = "unitrun"
)

var (
	Debug             bool = true
	validDispositions      = []status.Disposition{
		status.DispositionContinue,
		status.DispositionDidNotTest,
		status.DispositionFailed,
		status.DispositionQuitted,
		status.DispositionAborted,
	}
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of executed test cases",
	}, []string{
		"run_id",
		"group",
		"case",
		"disposition",
	})

	subtestFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "subtest_failures_total",
		Help:      "Count of failed sub-tests",
	}, []string{
		"run_id",
		"group",
		"case",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of test runs",
	}, []string{
		"run_id",
		"result",
	})

	runCasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_total",
		Help:      "Total number of test cases in a run",
	}, []string{
		"run_id",
	})

	runFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_failures_total",
		Help:      "Number of failed test cases in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of test runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordCase records the outcome of a single test case.
func RecordCase(runID string, group string, tcase string, disposition status.Disposition, subtestFailures int) {
	if !isValidDisposition(disposition) {
		log.Error("RecordCase - invalid disposition", "disposition", disposition)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "cases_total",
			"run_id", runID,
			"group", group,
			"case", tcase,
			"disposition", disposition)
	}
	casesTotal.WithLabelValues(runID, group, tcase, string(disposition)).Inc()
	if subtestFailures > 0 {
		subtestFailuresTotal.WithLabelValues(runID, group, tcase).Add(float64(subtestFailures))
	}
}

// RecordRun records the aggregate outcome of a whole run.
func RecordRun(
	runID string,
	result string,
	cases int,
	failures int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runCasesTotal.WithLabelValues(runID).Add(float64(cases))
	runFailuresTotal.WithLabelValues(runID).Add(float64(failures))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidDisposition(d status.Disposition) bool {
	return slices.Contains(validDispositions, d)
}
