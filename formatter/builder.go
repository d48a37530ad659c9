package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/fatih/color"

	tt "github.com/ensemblelab/rolecheck/internal/types"
)

// maxTraceEvents caps the removal trail printed for one verdict.
const maxTraceEvents = 10

var (
	passStyle        = color.New(color.FgGreen, color.Bold)
	failStyle        = color.New(color.FgRed, color.Bold)
	fatalStyle       = color.New(color.FgHiRed, color.Bold)
	participantStyle = color.New(color.FgYellow, color.Bold)
	fileStyle        = color.New(color.FgCyan, color.Bold)
	lineStyle        = color.New(color.FgHiBlue, color.Bold)
	messageStyle     = color.New(color.FgRed, color.Bold)
	warningStyle     = color.New(color.FgHiYellow, color.Bold)
)

// verdictFormatter is the interface that wraps the VerdictTemplate method.
// Implementations are responsible for formatting one class of check outcome.
type verdictFormatter interface {
	VerdictTemplate() string
}

// getVerdictFormatter is a factory function that returns the appropriate
// formatter for the given check result.
func getVerdictFormatter(result tt.CheckResult) verdictFormatter {
	switch result {
	case tt.ResultViolates:
		return &ViolationFormatter{}
	case tt.ResultFatal:
		return &FatalFormatter{}
	default:
		return &RefinesFormatter{}
	}
}

// GenerateFormattedVerdicts formats verdicts into a human-readable string,
// one block per verdict.
func GenerateFormattedVerdicts(verdicts []tt.Verdict) string {
	var builder strings.Builder
	for _, verdict := range verdicts {
		formatter := getVerdictFormatter(verdict.Result)
		builder.WriteString(buildVerdict(verdict, formatter))
	}
	return builder.String()
}

/***** Verdict Formatter Builder *****/

type VerdictData struct {
	Result      string
	Scenario    string
	Participant string
	Path        string
	Err         string
	Expected    string
	Mismatch    bool
	Elapsed     time.Duration
	HasReport   bool
	Passes      int
	Evals       int
	Queries     int
	Events      []tt.TraceEvent
}

func buildVerdict(verdict tt.Verdict, formatter verdictFormatter) string {
	data := VerdictData{
		Result:      verdict.Result.String(),
		Scenario:    verdict.Scenario,
		Participant: verdict.Participant,
		Path:        verdict.Path,
		Err:         verdict.Err,
		Expected:    verdict.Expected,
		Mismatch:    verdict.Mismatch(),
		Elapsed:     verdict.Elapsed,
	}
	if verdict.Report != nil {
		data.HasReport = true
		data.Passes = verdict.Report.Passes
		data.Evals = verdict.Report.Evals
		data.Queries = verdict.Report.Queries
		data.Events = verdict.Report.Events
	}

	funcMap := template.FuncMap{
		"header":      header,
		"stats":       stats,
		"removals":    removals,
		"failure":     failure,
		"errLine":     errLine,
		"expectation": expectation,
	}

	verdictTemplate := formatter.VerdictTemplate()
	tmpl := template.Must(template.New("verdict").Funcs(funcMap).Parse(verdictTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting verdict: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(result string, participant string, scenario string, path string) string {
	var endString string
	switch result {
	case "refines":
		endString = passStyle.Sprint("ok: ")
	case "violates":
		endString = failStyle.Sprint("violation: ")
	case "fatal":
		endString = fatalStyle.Sprint("fatal: ")
	}

	endString += participantStyle.Sprint(participant)
	endString += " / "
	endString += fileStyle.Sprintf("%s\n", scenario)

	if path == "" {
		path = "(source)"
	}
	endString += lineStyle.Sprint(" --> ")
	endString += fileStyle.Sprintf("%s\n", path)

	return endString
}

func stats(passes int, evals int, queries int, elapsed time.Duration) string {
	var endString string
	endString = lineStyle.Sprint("  = ")
	endString += fmt.Sprintf("verified in %d %s (%d evaluations, %d oracle queries, %s)\n",
		passes, plural(passes, "pass", "passes"), evals, queries, elapsed)
	return endString
}

func removals(events []tt.TraceEvent) string {
	if len(events) == 0 {
		return ""
	}

	var endString string
	endString = lineStyle.Sprint("  |\n")

	shown := events
	if len(shown) > maxTraceEvents {
		shown = shown[:maxTraceEvents]
	}
	for _, ev := range shown {
		endString += lineStyle.Sprint("  | ")
		endString += messageStyle.Sprintf("pass %d: dropped (%s, %s)\n", ev.Pass, ev.Point, ev.State)
	}
	if rest := len(events) - len(shown); rest > 0 {
		endString += lineStyle.Sprintf("  | ... %d more\n", rest)
	}

	return endString
}

func failure() string {
	var endString string
	endString = lineStyle.Sprint("  = ")
	endString += messageStyle.Sprint("start state is not compatible with the program entry\n")
	return endString
}

func errLine(err string) string {
	var endString string
	endString = lineStyle.Sprint("  = ")
	endString += messageStyle.Sprintf("%s\n", err)
	return endString
}

func expectation(expected string) string {
	var endString string
	endString = warningStyle.Sprint("  ! ")
	endString += warningStyle.Sprintf("expected %s\n", expected)
	return endString
}

func plural(n int, one string, many string) string {
	if n == 1 {
		return one
	}
	return many
}
