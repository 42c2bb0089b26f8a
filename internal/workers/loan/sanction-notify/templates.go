// internal/workers/loan/sanction-notify/templates.go
package sanctionnotify

import (
	"strings"
	"text/template"
)

var (
	subjectTemplate = template.Must(template.New("subject").Parse(
		`Your loan is sanctioned ({{.SanctionRef}})`))

	emailTemplate = template.Must(template.New("email").Parse(`Dear {{.ApplicantName}},

Your loan of INR {{.Amount}} has been sanctioned.

Reference:  {{.SanctionRef}}
Tenure:     {{.TenureMonths}} months
Rate:       {{printf "%.2f" .AnnualRate}}% p.a.
EMI:        INR {{printf "%.0f" .EMI}}

Your sanction letter is available for download in the application.

SanctionX`))

	smsTemplate = template.Must(template.New("sms").Parse(
		`SanctionX: loan of INR {{.Amount}} sanctioned, ref {{.SanctionRef}}. EMI INR {{printf "%.0f" .EMI}} for {{.TenureMonths}} months.`))
)

func render(tmpl *template.Template, input *Input) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, input); err != nil {
		return "", err
	}
	return b.String(), nil
}
