package bridge

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/guest.html
var templatesFS embed.FS

var guestTemplate = template.Must(template.ParseFS(templatesFS, "templates/guest.html"))

type guestPageData struct {
	Title   string
	Payload Payload
}

// RenderGuestPage рендерит HTML-документ гостя: карта, маркеры и скрипт протокола.
// Payload встраивается как JSON; html/template экранирует его для контекста <script>.
func RenderGuestPage(title string, payload Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := guestTemplate.ExecuteTemplate(&buf, "guest.html", guestPageData{
		Title:   title,
		Payload: payload,
	}); err != nil {
		return nil, fmt.Errorf("render guest page: %w", err)
	}
	return buf.Bytes(), nil
}
