/* Package index caches scraped bib attributes in a bolt database.

Listing pages need the title, year, and import date of every stored entry;
scraping those from the bib files on each page view re-reads the whole bibs
tree. The cache keys scraped attributes by cite key and invalidates them with
the bib file's mtime. It is derived data living outside the doclib tree and
is never committed; deleting it merely costs one full re-scrape.
*/
package index

import (
	"encoding/json"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/doclib/distil/internal/bibs"
)

var attrsBucket = []byte("doc-attrs")

// Cache memoizes bibs.Store.Attrs results.
type Cache struct {
	db   *bolt.DB
	bibs bibs.Store
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, st bibs.Store) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(attrsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, bibs: st}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

type entry struct {
	Mtime int64         `json:"mtime"`
	Attrs bibs.DocAttrs `json:"attrs"`
}

// Attrs returns the attributes of one cite key, scraping and recording them
// only when the bib file has changed since they were last cached.
func (c *Cache) Attrs(citeKey string) (bibs.DocAttrs, error) {
	info, err := os.Stat(c.bibs.Tree.BibFile(citeKey))
	if err != nil {
		return bibs.DocAttrs{}, err
	}
	mtime := info.ModTime().UnixNano()

	var cached *entry
	err = c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(attrsBucket).Get([]byte(citeKey))
		if v == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(v, &e); err != nil {
			// a stale or corrupt record is the same as a miss
			return nil
		}
		cached = &e
		return nil
	})
	if err != nil {
		return bibs.DocAttrs{}, err
	}
	if cached != nil && cached.Mtime == mtime {
		return cached.Attrs, nil
	}

	attrs, err := c.bibs.Attrs(citeKey)
	if err != nil {
		return bibs.DocAttrs{}, err
	}
	v, err := json.Marshal(entry{Mtime: mtime, Attrs: attrs})
	if err != nil {
		return bibs.DocAttrs{}, err
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(attrsBucket).Put([]byte(citeKey), v)
	})
	if err != nil {
		return bibs.DocAttrs{}, err
	}
	return attrs, nil
}

// Invalidate drops any cached record for citeKey, eg after a rename.
func (c *Cache) Invalidate(citeKey string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(attrsBucket).Delete([]byte(citeKey))
	})
}
