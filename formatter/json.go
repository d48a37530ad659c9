package formatter

import (
	"encoding/json"
	"time"

	tt "github.com/ensemblelab/rolecheck/internal/types"
)

type jsonVerdict struct {
	Scenario    string  `json:"scenario"`
	Participant string  `json:"participant"`
	Path        string  `json:"path,omitempty"`
	Result      string  `json:"result"`
	Expected    string  `json:"expected,omitempty"`
	Mismatch    bool    `json:"mismatch"`
	Error       string  `json:"error,omitempty"`
	ElapsedMS   float64 `json:"elapsed_ms"`
	Passes      int     `json:"passes,omitempty"`
	Evals       int     `json:"evaluations,omitempty"`
	Queries     int     `json:"oracle_queries,omitempty"`
}

// GenerateJSON renders verdicts as a JSON array for machine consumers.
func GenerateJSON(verdicts []tt.Verdict) ([]byte, error) {
	out := make([]jsonVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		jv := jsonVerdict{
			Scenario:    v.Scenario,
			Participant: v.Participant,
			Path:        v.Path,
			Result:      v.Result.String(),
			Expected:    v.Expected,
			Mismatch:    v.Mismatch(),
			Error:       v.Err,
			ElapsedMS:   float64(v.Elapsed) / float64(time.Millisecond),
		}
		if v.Report != nil {
			jv.Passes = v.Report.Passes
			jv.Evals = v.Report.Evals
			jv.Queries = v.Report.Queries
		}
		out = append(out, jv)
	}
	return json.Marshal(out)
}
