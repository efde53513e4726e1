/* Package web serves the browser front end of a doclib.

Every page except login requires a signed session cookie backed by an Apache
htpasswd file. Pages are html/template files compiled into the binary; wiki
text renders through wikimark, and stored documents and attachments are
served straight off the doclib tree.
*/
package web

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/doclib/distil/internal/attach"
	"github.com/doclib/distil/internal/bibs"
	"github.com/doclib/distil/internal/doclib"
	"github.com/doclib/distil/internal/htpasswd"
	"github.com/doclib/distil/internal/index"
	"github.com/doclib/distil/internal/tags"
	"github.com/doclib/distil/internal/wikifs"
	"github.com/doclib/distil/internal/wikimark"
)

// Server is the doclib web front end. Build one with New and serve its
// Handler.
type Server struct {
	tree   doclib.Tree
	auth   htpasswd.File
	bibs   bibs.Store
	tags   tags.Store
	wiki   wikifs.Store
	attach attach.Store
	cache  *index.Cache
	render wikimark.Renderer

	sessions sessions
	mux      *http.ServeMux
}

// New assembles a Server over the given stores. cache may be nil, in which
// case attributes are scraped on every request.
func New(
	tree doclib.Tree,
	auth htpasswd.File,
	secret string,
	bibStore bibs.Store,
	tagStore tags.Store,
	wikiStore wikifs.Store,
	attachStore attach.Store,
	cache *index.Cache,
) *Server {
	srv := &Server{
		tree:     tree,
		auth:     auth,
		bibs:     bibStore,
		tags:     tagStore,
		wiki:     wikiStore,
		attach:   attachStore,
		cache:    cache,
		render:   wikimark.Renderer{Oracle: wikifs.Oracle{Tree: tree}},
		sessions: sessions{secret: []byte(secret)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", srv.handleLogin)
	mux.HandleFunc("/logout", srv.handleLogout)
	mux.HandleFunc("/cite-keys", srv.authed(srv.handleCiteKeys))
	mux.HandleFunc("/bib/", srv.authed(srv.handleBib))
	mux.HandleFunc("/tag/", srv.authed(srv.handleTag))
	mux.HandleFunc("/wiki-words", srv.authed(srv.handleWikiWords))
	mux.HandleFunc("/wiki-create", srv.authed(srv.handleWikiCreate))
	mux.HandleFunc("/wiki/", srv.authed(srv.handleWiki))
	mux.HandleFunc("/attachments", srv.authed(srv.handleAttachments))
	mux.HandleFunc("/attachment/", srv.authed(srv.handleAttachment))
	mux.HandleFunc("/files/", srv.authed(srv.handleFiles))
	mux.HandleFunc("/", srv.authed(srv.handleHome))
	srv.mux = mux
	return srv
}

// Handler returns the root handler for the whole site.
func (srv *Server) Handler() http.Handler { return srv.mux }

// authed wraps a handler with the login requirement, redirecting anonymous
// requests to /login with a return path.
func (srv *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if srv.sessions.user(r) == "" {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		h(w, r)
	}
}

func (srv *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/cite-keys", http.StatusFound)
}

type loginPage struct {
	Title        string
	Next         string
	ErrorMessage string
	PrevUsername string
}

func (srv *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	page := loginPage{
		Title: "Log In",
		Next:  r.FormValue("next"),
	}
	if r.Method == http.MethodPost {
		username := r.FormValue("username")
		password := r.FormValue("password")
		if username != "" && password != "" && srv.auth.Authenticate(username, password) {
			srv.sessions.set(w, username)
			next := page.Next
			if next == "" || !strings.HasPrefix(next, "/") {
				next = "/"
			}
			http.Redirect(w, r, next, http.StatusFound)
			return
		}
		page.ErrorMessage = "The username or password you entered is incorrect."
		page.PrevUsername = username
	}
	srv.renderPage(w, "login.html", page)
}

func (srv *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	srv.sessions.clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

type wikiWordsPage struct {
	Title string
	Words []string
}

func (srv *Server) handleWikiWords(w http.ResponseWriter, r *http.Request) {
	words, err := srv.wiki.Words()
	if err != nil {
		srv.internalError(w, err)
		return
	}
	srv.renderPage(w, "wiki-words.html", wikiWordsPage{Title: "Wiki Words", Words: words})
}

func (srv *Server) handleWikiCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/wiki-words", http.StatusFound)
		return
	}
	word := wikimark.Normalize(r.FormValue("wiki-word"))
	if word == "" {
		http.Error(w, "empty wiki word", http.StatusBadRequest)
		return
	}
	if !srv.wiki.PageExists(word) {
		if err := srv.wiki.CreatePage(r.Context(), word); err != nil {
			srv.internalError(w, err)
			return
		}
	}
	http.Redirect(w, r, "/wiki/"+url.PathEscape(word), http.StatusFound)
}

type wikiPage struct {
	Title    string
	WikiWord string
	Area     wikiArea
}

func (srv *Server) handleWiki(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimPrefix(r.URL.Path, "/wiki/")
	if word == "" || strings.Contains(word, "/") {
		http.NotFound(w, r)
		return
	}

	if !srv.wiki.PageExists(word) {
		if r.Method == http.MethodPost && r.FormValue("submit-button") == "Create Page" {
			if err := srv.wiki.CreatePage(r.Context(), word); err != nil {
				srv.internalError(w, err)
				return
			}
		} else {
			w.WriteHeader(http.StatusNotFound)
			srv.renderPage(w, "wiki-x-not-found.html", wikiPage{Title: word, WikiWord: word})
			return
		}
	}

	var area wikiArea
	var err error
	if r.Method == http.MethodPost {
		area, err = srv.wikiFormAction(r, "text", "Text", r.FormValue("submit-button"),
			func() (string, error) { return srv.wiki.PageText(word) },
			func(text, descr string) error { return srv.wiki.UpdatePage(r.Context(), word, text, descr) })
	} else {
		var text string
		if text, err = srv.wiki.PageText(word); err == nil {
			area = srv.buildWikiArea("text", "Text", text)
		}
	}
	if err != nil {
		srv.internalError(w, err)
		return
	}
	srv.renderPage(w, "wiki-x.html", wikiPage{Title: word, WikiWord: word, Area: area})
}

type attachmentsPage struct {
	Title string
	Items []attach.Attrs
}

func (srv *Server) handleAttachments(w http.ResponseWriter, r *http.Request) {
	ids, err := srv.attach.IDs()
	if err != nil {
		srv.internalError(w, err)
		return
	}
	items := make([]attach.Attrs, 0, len(ids))
	for _, id := range ids {
		attrs, err := srv.attach.Attrs(id)
		if err != nil {
			srv.internalError(w, err)
			return
		}
		items = append(items, attrs)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Filename < items[j].Filename })
	srv.renderPage(w, "attachments.html", attachmentsPage{Title: "Attachments", Items: items})
}

type attachmentPage struct {
	Title    string
	Attrs    attach.Attrs
	FilePath string
	Preview  interface{} // template.HTML for markdown attachments, else nil
}

func (srv *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/attachment/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(srv.tree.AttachmentDir(id)); err != nil {
		http.NotFound(w, r)
		return
	}
	attrs, err := srv.attach.Attrs(id)
	if err != nil {
		srv.internalError(w, err)
		return
	}
	page := attachmentPage{
		Title:    attrs.Filename,
		Attrs:    attrs,
		FilePath: "/files/" + doclib.AttachmentsDir + "/" + url.PathEscape(id) + "/" + url.PathEscape(attrs.Filename),
	}
	if attrs.Suffix == ".md" {
		if preview, err := srv.markdownPreview(id); err == nil {
			page.Preview = preview
		}
	}
	srv.renderPage(w, "attachment-x.html", page)
}

// handleFiles serves stored documents and attachment files straight off the
// doclib tree. Only the bibs and attachments subtrees are exposed.
func (srv *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/files/")
	if !strings.HasPrefix(rel, doclib.BibsDir+"/") && !strings.HasPrefix(rel, doclib.AttachmentsDir+"/") {
		http.NotFound(w, r)
		return
	}
	http.StripPrefix("/files/", http.FileServer(http.Dir(srv.tree.Base))).ServeHTTP(w, r)
}

func (srv *Server) internalError(w http.ResponseWriter, err error) {
	log.Printf("internal error: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
