// Package filter holds the booth's filter catalog and the adjustment
// expressions behind each entry.
//
// An expression is a space separated chain of colour functions, applied left
// to right the same way a CSS filter property is:
//
//	sepia(0.8) saturate(1.4) hue-rotate(315deg) brightness(1.1)
package filter

import (
	"errors"
	"fmt"
)

var ErrUnknown = errors.New("unknown filter")

type Filter struct {
	Name  string
	Label string
	Expr  string

	chain Chain
}

// Chain returns the compiled adjustment chain of the filter.
func (f Filter) Chain() Chain {
	return f.chain
}

var catalog = mustCompile([]Filter{
	{Name: "90s", Label: "90s", Expr: "sepia(0.8) saturate(1.4) hue-rotate(315deg) brightness(1.1)"},
	{Name: "2000s", Label: "2000s", Expr: "saturate(1.6) contrast(1.2) brightness(1.1) hue-rotate(10deg)"},
	{Name: "clarendon", Label: "Clarendon", Expr: "contrast(1.2) saturate(1.35) brightness(1.05)"},
	{Name: "gingham", Label: "Gingham", Expr: "brightness(1.1) contrast(0.95) sepia(0.04)"},
	{Name: "moon", Label: "Moon", Expr: "grayscale(1) contrast(1.1) brightness(1.1)"},
	{Name: "lark", Label: "Lark", Expr: "brightness(1.2) contrast(1.05) saturate(1.15)"},
	{Name: "reyes", Label: "Reyes", Expr: "brightness(1.1) sepia(0.22) contrast(0.85)"},
	{Name: "juno", Label: "Juno", Expr: "saturate(1.4) contrast(1.15) brightness(1.05)"},
	{Name: "valencia", Label: "Valencia", Expr: "sepia(0.2) contrast(1.1) brightness(1.08)"},
	{Name: "slumber", Label: "Slumber", Expr: "brightness(1.05) saturate(0.85) sepia(0.1)"},
	{Name: "noir", Label: "Noir", Expr: "grayscale(1) contrast(1.3) brightness(0.9)"},
	{Name: "sunset", Label: "Sunset", Expr: "hue-rotate(-15deg) saturate(1.3) brightness(1.1)"},
	{Name: "vintage", Label: "Vintage", Expr: "sepia(0.6) saturate(0.8) contrast(1.05)"},
	{Name: "cooltone", Label: "Cool Tone", Expr: "hue-rotate(200deg) saturate(1.1) brightness(1.1)"},
	{Name: "warmglow", Label: "Warm Glow", Expr: "hue-rotate(-20deg) saturate(1.2) brightness(1.05)"},
	{Name: "bwfilm", Label: "B&W Film", Expr: "grayscale(1) contrast(1.2) brightness(1.05)"},
})

func mustCompile(filters []Filter) []Filter {
	for i := range filters {
		chain, err := Parse(filters[i].Expr)
		if err != nil {
			panic(fmt.Sprintf("filter %s: %v", filters[i].Name, err))
		}
		filters[i].chain = chain
	}
	return filters
}

// Catalog returns the filters in display order.
func Catalog() []Filter {
	out := make([]Filter, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(name string) (Filter, error) {
	for _, f := range catalog {
		if f.Name == name {
			return f, nil
		}
	}
	return Filter{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Next returns the name following name in the catalog, wrapping around.
// Unknown names start from the first entry.
func Next(name string) string {
	return step(name, 1)
}

// Prev is Next in the other direction.
func Prev(name string) string {
	return step(name, -1)
}

func step(name string, delta int) string {
	idx := -1
	for i, f := range catalog {
		if f.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return catalog[0].Name
	}
	n := len(catalog)
	return catalog[((idx+delta)%n+n)%n].Name
}
