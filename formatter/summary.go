package formatter

import (
	"fmt"
	"strings"

	tt "github.com/ensemblelab/rolecheck/internal/types"
)

// Summary condenses a verdict list into a single status line.
func Summary(verdicts []tt.Verdict) string {
	var ok, violations, fatals, unexpected int
	for _, v := range verdicts {
		switch v.Result {
		case tt.ResultRefines:
			ok++
		case tt.ResultViolates:
			violations++
		case tt.ResultFatal:
			fatals++
		}
		if v.Mismatch() {
			unexpected++
		}
	}

	parts := []string{
		passStyle.Sprintf("%d ok", ok),
		failStyle.Sprintf("%d %s", violations, plural(violations, "violation", "violations")),
	}
	if fatals > 0 {
		parts = append(parts, fatalStyle.Sprintf("%d fatal", fatals))
	}

	line := fmt.Sprintf("%d %s: %s",
		len(verdicts), plural(len(verdicts), "check", "checks"), strings.Join(parts, ", "))
	if unexpected > 0 {
		line += warningStyle.Sprintf(" (%d unexpected)", unexpected)
	}
	return line
}
