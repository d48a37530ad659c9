package formatter

type RefinesFormatter struct{}

func (f *RefinesFormatter) VerdictTemplate() string {
	return `{{header .Result .Participant .Scenario .Path -}}
{{- if .HasReport }}{{ stats .Passes .Evals .Queries .Elapsed }}{{- end -}}
{{- if .Mismatch }}{{ expectation .Expected }}{{- end }}
`
}
