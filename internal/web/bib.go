package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/doclib/distil/internal/bibs"
)

type tagCheckbox struct {
	Name    string
	Checked bool
}

type bibPage struct {
	Title    string
	CiteKey  string
	Bib      string
	Attrs    bibs.DocAttrs
	Abstract string

	Tags             []tagCheckbox
	NewTags          string
	TagsMessage      string
	TagsMessageClass string

	Notes wikiArea
}

// DocPath returns the served path of the stored document, or "".
func (p bibPage) DocPath() string {
	if p.Attrs.DocName == "" {
		return ""
	}
	return "/files/bibs/" + url.PathEscape(p.CiteKey) + "/" + url.PathEscape(p.Attrs.DocName)
}

func (srv *Server) handleBib(w http.ResponseWriter, r *http.Request) {
	citeKey := strings.TrimPrefix(r.URL.Path, "/bib/")
	if citeKey == "" || strings.Contains(citeKey, "/") {
		http.NotFound(w, r)
		return
	}
	if !srv.bibs.Exists(citeKey) {
		http.NotFound(w, r)
		return
	}

	page := bibPage{Title: citeKey, CiteKey: citeKey}

	var err error
	button := ""
	if r.Method == http.MethodPost {
		button = r.FormValue("submit-button")
	}

	switch button {
	case "Save Tags":
		r.ParseForm()
		err = srv.tags.Update(r.Context(), citeKey, r.Form["tag"], r.FormValue("new-tags"))
		if err == nil {
			page.TagsMessage = "Tags Saved!"
			page.TagsMessageClass = "message-saved"
		}
		if err == nil {
			// retain any unsaved notes edits across the tags save
			page.Notes = srv.buildWikiArea("notes", "Notes", textareaText(r, "notes"))
			page.Notes.ChangeDescr = r.FormValue("notes-change-descr")
		}

	case "Preview Notes", "Reset Notes", "Save Notes":
		page.Notes, err = srv.wikiFormAction(r, "notes", "Notes", button,
			func() (string, error) { return srv.wiki.Notes(citeKey) },
			func(text, descr string) error {
				return srv.wiki.UpdateNotes(r.Context(), citeKey, text, descr)
			})
		if err == nil {
			// retain any unsaved tag edits across the notes action
			r.ParseForm()
			if chosen := r.Form["tag"]; len(chosen) > 0 {
				page.Tags = checkboxes(nil, chosen)
			}
			page.NewTags = r.FormValue("new-tags")
		}

	default:
		var notes string
		if notes, err = srv.wiki.Notes(citeKey); err == nil {
			page.Notes = srv.buildWikiArea("notes", "Notes", notes)
		}
	}
	if err != nil {
		srv.internalError(w, err)
		return
	}

	if page.Bib, err = srv.bibs.Bib(citeKey); err != nil {
		srv.internalError(w, err)
		return
	}
	if page.Attrs, err = srv.bibs.Attrs(citeKey); err != nil {
		srv.internalError(w, err)
		return
	}
	if page.Abstract, err = srv.bibs.Abstract(citeKey); err != nil {
		srv.internalError(w, err)
		return
	}

	all, err := srv.tags.All()
	if err != nil {
		srv.internalError(w, err)
		return
	}
	if page.Tags == nil {
		current, err := srv.tags.ForCiteKey(citeKey)
		if err != nil {
			srv.internalError(w, err)
			return
		}
		page.Tags = checkboxes(all, current)
	} else {
		page.Tags = checkboxes(all, checkedNames(page.Tags))
	}

	srv.renderPage(w, "bib-x.html", page)
}

// checkboxes builds the tag checkbox list: every known tag, checked when in
// the current set. Checked tags missing from all (retained unsaved input)
// are appended so they are not silently dropped.
func checkboxes(all, checked []string) []tagCheckbox {
	isChecked := map[string]bool{}
	for _, tag := range checked {
		isChecked[tag] = true
	}
	seen := map[string]bool{}
	boxes := make([]tagCheckbox, 0, len(all)+len(checked))
	for _, tag := range all {
		boxes = append(boxes, tagCheckbox{Name: tag, Checked: isChecked[tag]})
		seen[tag] = true
	}
	for _, tag := range checked {
		if !seen[tag] {
			boxes = append(boxes, tagCheckbox{Name: tag, Checked: true})
		}
	}
	return boxes
}

func checkedNames(boxes []tagCheckbox) []string {
	var names []string
	for _, box := range boxes {
		if box.Checked {
			names = append(names, box.Name)
		}
	}
	return names
}
