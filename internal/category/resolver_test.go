package category

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver([]Definition{
		{Name: "placeholder1", Subcategories: []string{"placeholder1A", "placeholder1B", "placeholder1C"}},
		{Name: "placeholder2", Subcategories: []string{"placeholder2A", "placeholder2B", "placeholder2C"}},
		{Name: "placeholder3", Subcategories: []string{"placeholder3A", "placeholder3B", "placeholder3C"}},
	})
	if err != nil {
		t.Fatalf("NewResolver error: %v", err)
	}
	return r
}

func TestResolver_KnownCategoriesOfferExactMapping(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		category1 string
		want      []string
	}{
		{"placeholder1", []string{"placeholder1A", "placeholder1B", "placeholder1C"}},
		{"placeholder2", []string{"placeholder2A", "placeholder2B", "placeholder2C"}},
		{"placeholder3", []string{"placeholder3A", "placeholder3B", "placeholder3C"}},
	}

	for _, tt := range tests {
		t.Run(tt.category1, func(t *testing.T) {
			opts := r.Options(tt.category1)
			if !opts.Enabled {
				t.Fatalf("expected subcategory control enabled for %s", tt.category1)
			}
			if diff := cmp.Diff(tt.want, opts.Values); diff != "" {
				t.Errorf("Options(%q) mismatch (-want +got):\n%s", tt.category1, diff)
			}
		})
	}
}

func TestResolver_UnknownCategoryDisablesControl(t *testing.T) {
	r := newTestResolver(t)

	for _, category1 := range []string{"", "placeholder4", "PLACEHOLDER1"} {
		opts := r.Options(category1)
		if opts.Enabled {
			t.Errorf("Options(%q).Enabled = true, want false", category1)
		}
		if len(opts.Values) != 0 {
			t.Errorf("Options(%q).Values = %v, want none", category1, opts.Values)
		}
		if r.Subcategories(category1) != nil {
			t.Errorf("Subcategories(%q) should be nil", category1)
		}
	}
}

func TestResolver_Allows(t *testing.T) {
	r := newTestResolver(t)

	if !r.Allows("placeholder1", "placeholder1B") {
		t.Error("expected placeholder1B to belong to placeholder1")
	}
	if r.Allows("placeholder1", "placeholder2A") {
		t.Error("placeholder2A must not belong to placeholder1")
	}
	if r.Allows("unknown", "placeholder1A") {
		t.Error("unknown category must not allow any subcategory")
	}
}

func TestResolver_CategoriesPreserveOrder(t *testing.T) {
	r := newTestResolver(t)
	want := []string{"placeholder1", "placeholder2", "placeholder3"}
	if diff := cmp.Diff(want, r.Categories()); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_ReturnsCopies(t *testing.T) {
	r := newTestResolver(t)
	subs := r.Subcategories("placeholder1")
	subs[0] = "mutated"
	if got := r.Subcategories("placeholder1")[0]; got != "placeholder1A" {
		t.Fatalf("resolver state was mutated through returned slice: %q", got)
	}
}

func TestNewResolver_RejectsInvalidDefinitions(t *testing.T) {
	if _, err := NewResolver([]Definition{{Name: ""}}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := NewResolver([]Definition{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Error("expected error for duplicate name")
	}
}
