package formatter

type ViolationFormatter struct{}

func (f *ViolationFormatter) VerdictTemplate() string {
	return `{{header .Result .Participant .Scenario .Path -}}
{{- if .HasReport }}{{ removals .Events }}{{- end -}}
{{ failure }}{{- if .Mismatch }}{{ expectation .Expected }}{{- end }}
`
}
