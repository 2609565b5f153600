package notification

import (
	"bytes"
	"html/template"

	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

type emailData struct {
	RecipientName string
	Message       string
	Context       ports.NotificationContext
	Link          string
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2 style="color: #0b5394;">ESI LOGIS</h2>
  {{- if .RecipientName}}
  <p>Hello {{.RecipientName}},</p>
  {{- else}}
  <p>Hello,</p>
  {{- end}}
  <p>{{.Message}}</p>
  <table cellpadding="4" style="border-collapse: collapse;">
    <tr><td><strong>Intervention</strong></td><td>#{{.Context.InterventionID}}</td></tr>
    <tr><td><strong>Description</strong></td><td>{{.Context.Description}}</td></tr>
    {{- if .Context.LocationName}}
    <tr><td><strong>Location</strong></td><td>{{.Context.LocationName}}</td></tr>
    {{- end}}
    {{- if .Context.Priority}}
    <tr><td><strong>Priority</strong></td><td>{{.Context.Priority}}</td></tr>
    {{- end}}
    {{- if .Context.PlannedAt}}
    <tr><td><strong>Planned for</strong></td><td>{{.Context.PlannedAt.Format "2006-01-02"}}</td></tr>
    {{- end}}
    {{- if .Context.Actor}}
    <tr><td><strong>By</strong></td><td>{{.Context.Actor}}</td></tr>
    {{- end}}
  </table>
  {{- if .Link}}
  <p><a href="{{.Link}}">Open the intervention</a></p>
  {{- end}}
</body>
</html>
`))

func renderEmail(data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", errs.Wrap(err, "render email")
	}
	return buf.String(), nil
}
