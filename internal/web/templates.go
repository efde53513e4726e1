package web

import (
	"embed"
	"html/template"
	"net/http"
	"os"

	"github.com/russross/blackfriday"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// renderPage executes one page template. Template errors surface as a 500
// only when nothing has been written yet.
func (srv *Server) renderPage(w http.ResponseWriter, name string, data interface{}) {
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// markdownPreview renders a stored markdown attachment as HTML for inline
// display. Blackfriday's output is trusted here the same way wikimark's is:
// the doclib is the user's own content.
func (srv *Server) markdownPreview(id string) (template.HTML, error) {
	path, err := srv.attach.FilePath(id)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return template.HTML(blackfriday.Run(b)), nil
}
