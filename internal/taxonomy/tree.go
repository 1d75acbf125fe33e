// Package taxonomy holds the static type → category → subcategory tree the
// entry wizard walks through.
//
// A category whose subcategory list is nil is terminal: the wizard goes
// straight from the category to the amount. A non-nil list must be non-empty.
package taxonomy

import (
	"fmt"
	"slices"
	"strings"

	"myfinance/internal/core"
)

// NoSubcategory is the answer that skips the subcategory step, so no
// subcategory may use it as a name.
const NoSubcategory = "none"

type (
	// Category is one node under a type. Subcategories is nil for a terminal category.
	Category struct {
		Name          string
		Subcategories []string
	}

	// Branch groups the categories of one transaction type.
	Branch struct {
		Type       core.Type
		Categories []Category
	}

	// Tree is immutable once built; all accessors return copies.
	Tree struct {
		branches []Branch
		byType   map[core.Type]int
	}
)

// New validates branches and builds a Tree from a deep copy of them.
func New(branches []Branch) (*Tree, error) {
	if len(branches) == 0 {
		return nil, fmt.Errorf("taxonomy: no types defined")
	}

	t := &Tree{byType: make(map[core.Type]int, len(branches))}
	for _, b := range branches {
		if !b.Type.Valid() {
			return nil, fmt.Errorf("taxonomy: %w: %q", core.ErrUnknownType, b.Type)
		}
		if _, dup := t.byType[b.Type]; dup {
			return nil, fmt.Errorf("taxonomy: type %q defined twice", b.Type)
		}
		if len(b.Categories) == 0 {
			return nil, fmt.Errorf("taxonomy: type %q has no categories", b.Type)
		}

		copied := Branch{Type: b.Type, Categories: make([]Category, 0, len(b.Categories))}
		seen := make(map[string]struct{}, len(b.Categories))
		for _, c := range b.Categories {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				return nil, fmt.Errorf("taxonomy: type %q has a category with an empty name", b.Type)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("taxonomy: category %q repeated under %q", name, b.Type)
			}
			seen[name] = struct{}{}

			subs, err := checkSubcategories(b.Type, name, c.Subcategories)
			if err != nil {
				return nil, err
			}
			copied.Categories = append(copied.Categories, Category{Name: name, Subcategories: subs})
		}

		t.byType[b.Type] = len(t.branches)
		t.branches = append(t.branches, copied)
	}
	return t, nil
}

func checkSubcategories(typ core.Type, category string, subs []string) ([]string, error) {
	if subs == nil {
		return nil, nil
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("taxonomy: %s/%s has an empty subcategory list (omit it for a terminal category)", typ, category)
	}
	out := make([]string, 0, len(subs))
	seen := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("taxonomy: %s/%s has an empty subcategory name", typ, category)
		}
		if strings.EqualFold(s, NoSubcategory) {
			return nil, fmt.Errorf("taxonomy: subcategory name %q under %s/%s is reserved", s, typ, category)
		}
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("taxonomy: subcategory %q repeated under %s/%s", s, typ, category)
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// Types returns the configured types in definition order.
func (t *Tree) Types() []core.Type {
	out := make([]core.Type, len(t.branches))
	for i, b := range t.branches {
		out[i] = b.Type
	}
	return out
}

// HasType reports whether typ is configured.
func (t *Tree) HasType(typ core.Type) bool {
	_, ok := t.byType[typ]
	return ok
}

// Categories returns the category names of typ in definition order.
func (t *Tree) Categories(typ core.Type) ([]string, error) {
	b, err := t.branch(typ)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(b.Categories))
	for i, c := range b.Categories {
		out[i] = c.Name
	}
	return out, nil
}

// Subcategories returns the subcategories of category, or an empty slice when
// the category is terminal.
func (t *Tree) Subcategories(typ core.Type, category string) ([]string, error) {
	c, err := t.category(typ, category)
	if err != nil {
		return nil, err
	}
	return slices.Clone(c.Subcategories), nil
}

// HasCategory reports whether category exists under typ.
func (t *Tree) HasCategory(typ core.Type, category string) bool {
	_, err := t.category(typ, category)
	return err == nil
}

// HasSubcategory reports whether sub is listed under typ/category.
func (t *Tree) HasSubcategory(typ core.Type, category, sub string) bool {
	c, err := t.category(typ, category)
	if err != nil {
		return false
	}
	return slices.Contains(c.Subcategories, sub)
}

func (t *Tree) branch(typ core.Type) (*Branch, error) {
	i, ok := t.byType[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownType, typ)
	}
	return &t.branches[i], nil
}

func (t *Tree) category(typ core.Type, name string) (*Category, error) {
	b, err := t.branch(typ)
	if err != nil {
		return nil, err
	}
	for i := range b.Categories {
		if b.Categories[i].Name == name {
			return &b.Categories[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q under %q", core.ErrUnknownCategory, name, typ)
}
