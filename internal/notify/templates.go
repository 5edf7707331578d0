package notify

import (
	"bytes"
	"html/template"
)

var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{if .URL}}<p><a href="{{.URL}}">Open in portal</a></p>{{end}}
  <p style="color: #888; font-size: 12px;">This is an automated message from the employee documents portal.</p>
</body>
</html>`))

type emailView struct {
	Title   string
	Message string
	URL     string
}

func renderEmail(title, message, url string) string {
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, emailView{Title: title, Message: message, URL: url}); err != nil {
		// шаблон статический, ошибка возможна только при сбое записи в буфер
		return message
	}
	return buf.String()
}
