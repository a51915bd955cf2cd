package category

import (
	"fmt"
	"slices"
)

// Definition is a top-level category with its ordered subcategories
type Definition struct {
	Name          string
	Subcategories []string
}

// Options describes what the subcategory control should offer for a top-level category
type Options struct {
	Enabled bool
	Values  []string
}

// Resolver maps top-level categories to their fixed, ordered subcategory sets
type Resolver struct {
	order []string
	subs  map[string][]string
}

// NewResolver builds a resolver from ordered definitions.
// Names must be non-empty and unique.
func NewResolver(definitions []Definition) (*Resolver, error) {
	r := &Resolver{
		order: make([]string, 0, len(definitions)),
		subs:  make(map[string][]string, len(definitions)),
	}
	for i, def := range definitions {
		if def.Name == "" {
			return nil, fmt.Errorf("category at index %d has empty name", i)
		}
		if _, exists := r.subs[def.Name]; exists {
			return nil, fmt.Errorf("duplicate category name: %s", def.Name)
		}
		r.order = append(r.order, def.Name)
		r.subs[def.Name] = slices.Clone(def.Subcategories)
	}
	return r, nil
}

// Categories returns the top-level categories in configured order
func (r *Resolver) Categories() []string {
	return slices.Clone(r.order)
}

// Subcategories returns the allowed subcategories for category1, or nil when unknown
func (r *Resolver) Subcategories(category1 string) []string {
	subs, ok := r.subs[category1]
	if !ok {
		return nil
	}
	return slices.Clone(subs)
}

// Known reports whether category1 is a configured top-level category
func (r *Resolver) Known(category1 string) bool {
	_, ok := r.subs[category1]
	return ok
}

// Allows reports whether category2 belongs to category1's subcategory set
func (r *Resolver) Allows(category1, category2 string) bool {
	return slices.Contains(r.subs[category1], category2)
}

// Options returns the subcategory control state for category1.
// Unknown categories disable the control and offer nothing.
func (r *Resolver) Options(category1 string) Options {
	values := r.Subcategories(category1)
	if len(values) == 0 {
		return Options{Enabled: false}
	}
	return Options{Enabled: true, Values: values}
}
