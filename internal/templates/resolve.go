package templates

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"cvforge/internal/cv"
)

// RootID is the id attribute of the element that export captures.
const RootID = "cv-root"

// Section names a semantic block of a rendered CV.
type Section string

const (
	SectionHeader         Section = "header"
	SectionSummary        Section = "summary"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionLanguages      Section = "languages"
	SectionCertifications Section = "certifications"
)

// Document is a rendered CV.
type Document struct {
	Template Name
	Title    string
	HTML     string
	Sections []Section
}

// Has reports whether the document contains section s.
func (d Document) Has(s Section) bool {
	for _, got := range d.Sections {
		if got == s {
			return true
		}
	}
	return false
}

// Renderer is one rendering strategy.
type Renderer struct {
	layout string
	tmpl   *template.Template
}

//go:embed layouts/*.html.tmpl
var layoutFS embed.FS

var (
	modernRenderer  = newRenderer("modern")
	classicRenderer = newRenderer("classic")
	genericRenderer = newRenderer("generic")
)

// creative, minimal and professional share the generic layout until they
// get their own.
var renderers = map[Name]*Renderer{
	Modern:       modernRenderer,
	Classic:      classicRenderer,
	Creative:     genericRenderer,
	Minimal:      genericRenderer,
	Professional: genericRenderer,
}

func newRenderer(layout string) *Renderer {
	t := template.Must(template.New(layout).ParseFS(layoutFS, "layouts/base.html.tmpl", "layouts/"+layout+".html.tmpl"))
	return &Renderer{layout: layout, tmpl: t}
}

// Resolve renders data with the template named by name. Unknown names
// render with Default. It never fails.
func Resolve(name string, data cv.Data) Document {
	n := Normalize(name)
	r, ok := renderers[n]
	if !ok {
		n, r = Default, renderers[Default]
	}

	v := newView(n, data)
	doc := Document{
		Template: n,
		Title:    v.Title,
		Sections: v.sections(),
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", v); err != nil {
		doc.HTML = fallbackHTML(v)
		return doc
	}
	doc.HTML = buf.String()
	return doc
}

func fallbackHTML(v view) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"></head><body style="background:#fff">`)
	b.WriteString(`<main id="` + RootID + `"><h1>`)
	b.WriteString(template.HTMLEscapeString(v.Title))
	b.WriteString(`</h1></main></body></html>`)
	return b.String()
}
