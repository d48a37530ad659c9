package formatter

type FatalFormatter struct{}

func (f *FatalFormatter) VerdictTemplate() string {
	return `{{header .Result .Participant .Scenario .Path -}}
{{ errLine .Err }}{{- if .Expected }}{{ expectation .Expected }}{{- end }}
`
}
