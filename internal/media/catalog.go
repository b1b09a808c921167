package media

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("media item not found")
	ErrDuplicate = errors.New("media item already exists")
	ErrInvalid   = errors.New("invalid media item")
)

// Catalog holds ingested media in ingest order. It is not safe for
// concurrent use; the owning engine serialises access.
type Catalog struct {
	items []*Item
	index map[string]*Item
}

func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]*Item)}
}

func (c *Catalog) Add(item Item) error {
	if item.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if !item.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, item.Kind)
	}
	if item.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalid)
	}
	if _, ok := c.index[item.ID]; ok {
		return ErrDuplicate
	}

	stored := item
	c.items = append(c.items, &stored)
	c.index[stored.ID] = &stored
	return nil
}

func (c *Catalog) Get(id string) (*Item, bool) {
	item, ok := c.index[id]
	return item, ok
}

func (c *Catalog) List() []Item {
	out := make([]Item, len(c.items))
	for i, item := range c.items {
		out[i] = *item
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Remove(id string) error {
	if _, ok := c.index[id]; !ok {
		return ErrNotFound
	}
	delete(c.index, id)
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return nil
}

// AttachThumbnail records a thumbnail handle. Results for items that were
// removed while generation was in flight are dropped.
func (c *Catalog) AttachThumbnail(id, handle string) error {
	item, ok := c.index[id]
	if !ok {
		return ErrNotFound
	}
	item.Thumbnail = handle
	return nil
}
