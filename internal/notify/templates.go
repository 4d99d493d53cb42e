package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// AlertSubject is the subject line of every down alert.
const AlertSubject = "Down status alert"

//go:embed templates/*
var templateFS embed.FS

var (
	alertText = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/alert.txt"))
	alertHTML = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/alert.html"))
)

type alertData struct {
	Aliases []string
}

func renderAlertMail(from, to string, aliases []string) (Mail, error) {
	data := alertData{Aliases: aliases}

	var text, html bytes.Buffer
	if err := alertText.Execute(&text, data); err != nil {
		return Mail{}, err
	}
	if err := alertHTML.Execute(&html, data); err != nil {
		return Mail{}, err
	}

	return Mail{
		From:    from,
		To:      []string{to},
		Subject: AlertSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
