package cv

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

const (
	MinTitleLength = 3
	MaxTitleLength = 100
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ValidateTitle trims the title and checks its length in characters.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	n := utf8.RuneCountInString(trimmed)
	if n < MinTitleLength {
		return "", &ValidationError{Field: "title", Message: fmt.Sprintf("must be at least %d characters", MinTitleLength)}
	}
	if n > MaxTitleLength {
		return "", &ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLength)}
	}
	return trimmed, nil
}

// TruncateTitle cuts a derived title down to MaxTitleLength characters.
func TruncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:MaxTitleLength]))
}

//go:embed schema.json
var dataSchema []byte

var dataSchemaLoader = gojsonschema.NewBytesLoader(dataSchema)

// ValidateDataJSON checks a submitted CV payload against the data schema
// before it is decoded.
func ValidateDataJSON(raw []byte) error {
	if len(raw) == 0 {
		return &ValidationError{Field: "data", Message: "must be an object"}
	}
	res, err := gojsonschema.Validate(dataSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Field: "data", Message: "must be a valid JSON object"}
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return &ValidationError{Field: "data", Message: strings.Join(msgs, "; ")}
}

// ValidateListIDs rejects a document where two entries of the same list
// share an id.
func ValidateListIDs(d Data) error {
	lists := []struct {
		field string
		ids   []string
	}{
		{"experience", collectIDs(d.Experience, func(e Experience) string { return e.ID })},
		{"education", collectIDs(d.Education, func(e Education) string { return e.ID })},
		{"skills", collectIDs(d.Skills, func(s Skill) string { return s.ID })},
		{"languages", collectIDs(d.Languages, func(s Skill) string { return s.ID })},
		{"certifications", collectIDs(d.Certifications, func(c Certification) string { return c.ID })},
	}
	for _, l := range lists {
		seen := make(map[string]struct{}, len(l.ids))
		for _, id := range l.ids {
			if _, dup := seen[id]; dup {
				return &ValidationError{Field: "data." + l.field, Message: fmt.Sprintf("duplicate id %q", id)}
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}

func collectIDs[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
