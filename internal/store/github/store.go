package github

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finsymposium/marketpulse/internal/cache"
)

// Documents are cached briefly so the admin UI's sync polling does not
// hammer the raw host.
const readTTL = 30 * time.Second

// Store is the typed document layer over the Contents API client. Each
// named document lives at data/{name}.json in the repository.
type Store struct {
	client *Client
	cache  *cache.TTLCache
}

// NewStore builds a document store over client. A nil c disables caching.
func NewStore(client *Client, c *cache.TTLCache) *Store {
	return &Store{client: client, cache: c}
}

// WritesEnabled reports whether Save can commit.
func (s *Store) WritesEnabled() bool {
	return s.client.WritesEnabled()
}

func documentPath(name string) string {
	return fmt.Sprintf("data/%s.json", name)
}

// Load reads the whole named document into out. Returns ErrNotFound when
// the document has never been saved; callers seed defaults then.
func (s *Store) Load(ctx context.Context, name string, out any) error {
	path := documentPath(name)

	if s.cache != nil {
		if raw, ok := s.cache.Get(path); ok {
			return json.Unmarshal(raw.([]byte), out)
		}
	}

	raw, err := s.client.ReadRaw(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("document %s: %w", name, err)
	}
	if s.cache != nil {
		s.cache.Set(path, raw, readTTL)
	}
	return nil
}

// Save replaces the whole named document. Field-level patches are not
// offered: the admin UI's contract is read-whole, write-whole.
func (s *Store) Save(ctx context.Context, name string, doc any) error {
	path := documentPath(name)

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("document %s: %w", name, err)
	}

	message := fmt.Sprintf("Update %s data - %s", name, time.Now().Format("2006-01-02 15:04:05"))
	if err := s.client.Commit(ctx, path, content, message); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(path)
	}
	return nil
}
