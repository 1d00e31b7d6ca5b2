package cv

import (
	"strconv"
	"strings"
	"unicode"
)

// GenerateSlug turns a title into a URL-safe base slug. The result only
// contains [a-z0-9-], never starts or ends with a hyphen and never repeats
// one. Titles without any ASCII alphanumerics produce "".
func GenerateSlug(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingSep = true
		}
		// anything else is dropped without acting as a separator
	}
	return b.String()
}

// GenerateUniqueSlug returns base when it is free, otherwise the first free
// base-N for N = 2, 3, ...
func GenerateUniqueSlug(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

const maxFilenameLength = 50

// GenerateSafeFilename applies the slug pipeline and truncates to 50 characters.
func GenerateSafeFilename(title string) string {
	name := GenerateSlug(title)
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	return name
}
