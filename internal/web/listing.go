package web

import (
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/doclib/distil/internal/bibs"
)

// listItem is one row of a cite-key listing.
type listItem struct {
	CiteKey string
	Attrs   bibs.DocAttrs
	Tags    []string
}

// DocPath returns the served path of the item's stored document, or "".
func (it listItem) DocPath() string {
	if it.Attrs.DocName == "" {
		return ""
	}
	return "/files/bibs/" + url.PathEscape(it.CiteKey) + "/" + url.PathEscape(it.Attrs.DocName)
}

// orderChoice is one entry of the "order by" selector.
type orderChoice struct {
	Value, Text string
}

// orderChoices are the available listing orders; a choice's form value is
// derived from its text so the two can never drift apart.
var orderChoices = func() []orderChoice {
	texts := []string{
		"Cite Key",
		"Date Imported (Oldest First)",
		"Date Imported (Newest First)",
		"Year Published (Oldest First), then Cite Key",
		"Year Published (Newest First), then Cite Key",
	}
	choices := make([]orderChoice, len(texts))
	for i, text := range texts {
		choices[i] = orderChoice{Value: choiceValue(text), Text: text}
	}
	return choices
}()

func choiceValue(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), "-")
}

// sortItems orders items in place; items arrive sorted by cite key, so a
// stable sort on the chosen attribute keeps cite key as the tiebreak.
func sortItems(items []listItem, orderBy string) {
	switch orderBy {
	case "date-imported-oldest-first":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Attrs.DateAdded.Before(items[j].Attrs.DateAdded)
		})
	case "date-imported-newest-first":
		sort.SliceStable(items, func(i, j int) bool {
			return items[j].Attrs.DateAdded.Before(items[i].Attrs.DateAdded)
		})
	case "year-published-oldest-first-then-cite-key":
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Attrs.Year < items[j].Attrs.Year
		})
	case "year-published-newest-first-then-cite-key":
		sort.SliceStable(items, func(i, j int) bool {
			return items[j].Attrs.Year < items[i].Attrs.Year
		})
	}
}

// orderBy reads the listing-order form value, defaulting to cite key order.
func orderBy(r *http.Request) string {
	if r.Method == http.MethodPost && r.FormValue("reload-button") != "" {
		if v := r.FormValue("order-by-choice"); v != "" {
			return v
		}
	}
	return "cite-key"
}

// itemAttrs fetches one cite key's attributes, through the cache when there
// is one.
func (srv *Server) itemAttrs(citeKey string) (bibs.DocAttrs, error) {
	if srv.cache != nil {
		return srv.cache.Attrs(citeKey)
	}
	return srv.bibs.Attrs(citeKey)
}

func (srv *Server) listItems(citeKeys []string) ([]listItem, error) {
	items := make([]listItem, 0, len(citeKeys))
	for _, citeKey := range citeKeys {
		attrs, err := srv.itemAttrs(citeKey)
		if err != nil {
			return nil, err
		}
		tagList, err := srv.tags.ForCiteKey(citeKey)
		if err != nil {
			return nil, err
		}
		items = append(items, listItem{CiteKey: citeKey, Attrs: attrs, Tags: tagList})
	}
	return items, nil
}

type citeKeysPage struct {
	Title       string
	Items       []listItem
	Choices     []orderChoice
	OrderBy     string
	TopicTag    string
	FilterTags  []string
	ShowFilters bool
}

func (srv *Server) handleCiteKeys(w http.ResponseWriter, r *http.Request) {
	citeKeys, err := srv.bibs.Keys()
	if err != nil {
		srv.internalError(w, err)
		return
	}
	items, err := srv.listItems(citeKeys)
	if err != nil {
		srv.internalError(w, err)
		return
	}
	order := orderBy(r)
	sortItems(items, order)
	srv.renderPage(w, "cite-keys.html", citeKeysPage{
		Title:   "Cite Keys",
		Items:   items,
		Choices: orderChoices,
		OrderBy: order,
	})
}

func (srv *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimPrefix(r.URL.Path, "/tag/")
	if tag == "" || strings.Contains(tag, "/") {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(srv.tree.TagIndexFile(tag)); err != nil {
		http.NotFound(w, r)
		return
	}

	citeKeys, err := srv.tags.CiteKeys(tag)
	if err != nil {
		srv.internalError(w, err)
		return
	}
	items, err := srv.listItems(citeKeys)
	if err != nil {
		srv.internalError(w, err)
		return
	}

	r.ParseForm()
	filterTags := r.Form["shta"]
	items = filterByTags(items, tag, filterTags)

	order := orderBy(r)
	sortItems(items, order)
	srv.renderPage(w, "tag-x.html", citeKeysPage{
		Title:       tag,
		Items:       items,
		Choices:     orderChoices,
		OrderBy:     order,
		TopicTag:    tag,
		FilterTags:  filterTags,
		ShowFilters: true,
	})
}

// filterByTags narrows a tag listing to items carrying every extra chosen
// tag, and hides the already-implied tags from each row's tag list.
func filterByTags(items []listItem, current string, chosen []string) []listItem {
	implied := map[string]bool{current: true}
	for _, tag := range chosen {
		implied[tag] = true
	}

	kept := items[:0]
	for _, it := range items {
		has := map[string]bool{}
		for _, tag := range it.Tags {
			has[tag] = true
		}
		all := true
		for tag := range implied {
			if !has[tag] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		shown := make([]string, 0, len(it.Tags))
		for _, tag := range it.Tags {
			if !implied[tag] {
				shown = append(shown, tag)
			}
		}
		it.Tags = shown
		kept = append(kept, it)
	}
	return kept
}
