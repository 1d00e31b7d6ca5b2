// Package templates maps a template name onto one of a closed set of
// renderers and produces the HTML document for a CV.
package templates

import (
	"fmt"
	"strings"

	"cvforge/internal/cv"
)

// Name identifies a rendering strategy.
type Name string

const (
	Modern       Name = "modern"
	Classic      Name = "classic"
	Creative     Name = "creative"
	Minimal      Name = "minimal"
	Professional Name = "professional"
)

// Default is used whenever a stored or requested name is not recognised.
const Default = Modern

var all = []Name{Modern, Classic, Creative, Minimal, Professional}

var displayNames = map[Name]string{
	Modern:       "Modern",
	Classic:      "Classic",
	Creative:     "Creative",
	Minimal:      "Minimal",
	Professional: "Professional",
}

// All returns the template identifiers in presentation order.
func All() []Name {
	out := make([]Name, len(all))
	copy(out, all)
	return out
}

// Valid reports whether name, ignoring case, is one of the known templates.
func Valid(name string) bool {
	_, ok := lookup(name)
	return ok
}

func lookup(name string) (Name, bool) {
	n := Name(strings.ToLower(name))
	for _, known := range all {
		if n == known {
			return n, true
		}
	}
	return "", false
}

// Normalize lower-cases name and substitutes Default for unknown values.
func Normalize(name string) Name {
	if n, ok := lookup(name); ok {
		return n
	}
	return Default
}

// Parse is the strict counterpart of Normalize used when validating user input.
func Parse(name string) (Name, error) {
	n, ok := lookup(strings.TrimSpace(name))
	if !ok {
		return "", &cv.ValidationError{
			Field:   "template",
			Message: fmt.Sprintf("must be one of %s", strings.Join(names(), ", ")),
		}
	}
	return n, nil
}

func names() []string {
	out := make([]string, len(all))
	for i, n := range all {
		out[i] = string(n)
	}
	return out
}

// DisplayName returns the human label of a template, defaulting like Normalize.
func DisplayName(name string) string {
	return displayNames[Normalize(name)]
}

// Info describes a template for pickers.
type Info struct {
	ID      Name   `json:"id"`
	Name    string `json:"name"`
	Bespoke bool   `json:"bespoke"`
}

// Describe lists every template together with whether it has its own layout
// or is served by the shared generic layout.
func Describe() []Info {
	out := make([]Info, 0, len(all))
	for _, n := range all {
		out = append(out, Info{
			ID:      n,
			Name:    displayNames[n],
			Bespoke: renderers[n] != genericRenderer,
		})
	}
	return out
}
