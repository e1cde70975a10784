// Package checklist tracks deployment readiness against a fixed catalog of
// items, persists completion state and gates deployment on critical items.
package checklist

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	ErrUnknownItem  = errors.New("unknown checklist item")
	ErrNotAutomated = errors.New("checklist item has no automated check")
)

// CheckFunc is an automated check. It reports whether the item is satisfied.
type CheckFunc func(ctx context.Context) (bool, error)

type Category struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
}

type Item struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category" json:"category"`
	Critical    bool   `yaml:"critical" json:"critical"`
	Automated   bool   `yaml:"automated" json:"automated"`

	check CheckFunc
}

// HasCheck reports whether a check function is attached.
func (i Item) HasCheck() bool { return i.check != nil }

type catalogFile struct {
	Categories []Category `yaml:"categories"`
	Items      []Item     `yaml:"items"`
}

// Catalog is immutable after construction; accessors return copies.
type Catalog struct {
	categories []Category
	items      []Item
	index      map[string]int
}

// NewCatalog parses the embedded catalog and attaches checks by item ID.
func NewCatalog(checks map[string]CheckFunc) (*Catalog, error) {
	return ParseCatalog(catalogYAML, checks)
}

// ParseCatalog builds a catalog from YAML. Every item must name a declared
// category, IDs must be unique and checks may only target automated items.
func ParseCatalog(data []byte, checks map[string]CheckFunc) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse checklist catalog: %w", err)
	}

	cats := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.ID == "" || cats[c.ID] {
			return nil, fmt.Errorf("checklist catalog: bad or duplicate category %q", c.ID)
		}
		cats[c.ID] = true
	}

	c := &Catalog{
		categories: f.Categories,
		items:      f.Items,
		index:      make(map[string]int, len(f.Items)),
	}
	for i, it := range c.items {
		if it.ID == "" {
			return nil, fmt.Errorf("checklist catalog: item %d has no id", i)
		}
		if _, dup := c.index[it.ID]; dup {
			return nil, fmt.Errorf("checklist catalog: duplicate item %q", it.ID)
		}
		if !cats[it.Category] {
			return nil, fmt.Errorf("checklist catalog: item %q has unknown category %q", it.ID, it.Category)
		}
		c.index[it.ID] = i
	}

	for id, fn := range checks {
		i, ok := c.index[id]
		if !ok {
			return nil, fmt.Errorf("checklist catalog: check for %q: %w", id, ErrUnknownItem)
		}
		if !c.items[i].Automated {
			return nil, fmt.Errorf("checklist catalog: check for %q: item is not marked automated", id)
		}
		c.items[i].check = fn
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Catalog) Item(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Automated returns the items that have a check attached, in catalog order.
func (c *Catalog) Automated() []Item {
	var out []Item
	for _, it := range c.items {
		if it.HasCheck() {
			out = append(out, it)
		}
	}
	return out
}

// Critical returns the critical items in catalog order.
func (c *Catalog) Critical() []Item {
	var out []Item
	for _, it := range c.items {
		if it.Critical {
			out = append(out, it)
		}
	}
	return out
}

type CategoryItems struct {
	Category Category `json:"category"`
	Items    []Item   `json:"items"`
}

// ByCategory groups items under their category, in declaration order.
func (c *Catalog) ByCategory() []CategoryItems {
	out := make([]CategoryItems, 0, len(c.categories))
	for _, cat := range c.categories {
		group := CategoryItems{Category: cat, Items: []Item{}}
		for _, it := range c.items {
			if it.Category == cat.ID {
				group.Items = append(group.Items, it)
			}
		}
		out = append(out, group)
	}
	return out
}
