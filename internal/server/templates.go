package server

import (
	"embed"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indexPageData struct {
	FileLink string
}

type passwordPageData struct {
	Filename string
	Error    bool
}

// renderIndexPage writes the upload form, with the share link filled in
// after a successful upload.
func renderIndexPage(w http.ResponseWriter, fileLink string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "index.html", indexPageData{FileLink: fileLink}); err != nil {
		log.Printf("msg=render_index_failed err=%v", err)
	}
}

// renderPasswordPage writes the password prompt. A wrong password is not
// an error status: the page is re-rendered with an error flag and 200.
func renderPasswordPage(w http.ResponseWriter, filename string, failed bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "password.html", passwordPageData{Filename: filename, Error: failed}); err != nil {
		log.Printf("msg=render_password_failed err=%v", err)
	}
}
