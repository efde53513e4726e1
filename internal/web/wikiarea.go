package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/doclib/distil/internal/wikimark"
)

// wikiArea carries one editable wiki text region (a page's text, or a cite
// key's notes) through to the templates: the raw markup for the textarea, the
// rendered HTML, and any message from the last form action.
type wikiArea struct {
	Name         string // form field prefix: "notes" or "text"
	Title        string
	Message      string
	MessageClass string
	Raw          string
	ChangeDescr  string
	HTML         template.HTML
	Error        *markupErrorView
}

// markupErrorView slices the document around a markup error so the template
// can highlight exactly the offending span.
type markupErrorView struct {
	Before        []string
	Pre, At, Post string
	After         []string
}

// buildWikiArea renders raw markup for display. On a markup error the area
// carries the error view instead of HTML; a partial render is never shown.
func (srv *Server) buildWikiArea(name, title, raw string) wikiArea {
	area := wikiArea{Name: name, Title: title, Raw: raw}
	lines := strings.Split(raw, "\n")
	html, err := srv.render.Render(lines)
	if err != nil {
		var syn *wikimark.SyntaxError
		if errors.As(err, &syn) {
			area.Message = fmt.Sprintf("Wiki markup error: line %d: %s", syn.Line, syn.Message)
			area.MessageClass = "message-error"
			area.Error = &markupErrorView{
				Before: lines[:syn.Line-1],
				Pre:    syn.Text[:syn.Start],
				At:     syn.Text[syn.Start:syn.End],
				Post:   syn.Text[syn.End:],
				After:  lines[syn.Line:],
			}
		}
		return area
	}
	area.HTML = template.HTML(strings.Join(html, "\n"))
	return area
}

// textareaText reads a textarea form value the way stored wiki text is read:
// trailing whitespace dropped and line endings normalized.
func textareaText(r *http.Request, name string) string {
	s := r.FormValue(name)
	s = strings.TrimRight(s, " \t\r\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// wikiFormAction applies one Preview/Reset/Save button press for a wiki text
// region and returns the area to display.
//
// getText and update wrap the backing store for either a wiki page or a cite
// key's notes.
func (srv *Server) wikiFormAction(
	r *http.Request, name, title, button string,
	getText func() (string, error),
	update func(text, changeDescr string) error,
) (wikiArea, error) {
	descr := r.FormValue(name + "-change-descr")

	switch button {
	case "Preview " + title:
		area := srv.buildWikiArea(name, title, textareaText(r, name))
		if area.Error == nil {
			area.Message = "Preview of " + title
			area.MessageClass = "message-preview"
		}
		area.ChangeDescr = descr
		return area, nil

	case "Reset " + title:
		stored, err := getText()
		if err != nil {
			return wikiArea{}, err
		}
		area := srv.buildWikiArea(name, title, stored)
		if area.Error == nil {
			area.Message = title + " Reset"
			area.MessageClass = "message-reset"
		}
		return area, nil

	case "Save " + title:
		text := textareaText(r, name)
		stored, err := getText()
		if err != nil {
			return wikiArea{}, err
		}
		if text == stored {
			area := srv.buildWikiArea(name, title, text)
			if area.Error == nil {
				area.Message = "No Changes to " + title
				area.MessageClass = "message-no-change"
			}
			area.ChangeDescr = descr
			return area, nil
		}
		if err := update(text, descr); err != nil {
			return wikiArea{}, err
		}
		area := srv.buildWikiArea(name, title, text)
		if area.Error == nil {
			area.Message = title + " Saved!"
			area.MessageClass = "message-saved"
		}
		return area, nil
	}

	// unknown button: just show the stored text
	stored, err := getText()
	if err != nil {
		return wikiArea{}, err
	}
	return srv.buildWikiArea(name, title, stored), nil
}
