package export

import (
	"strings"

	"cvforge/internal/cv"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	SVG  Format = "svg"
)

// ParseFormat accepts png, jpeg (or jpg) and svg in any case.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "svg":
		return SVG, nil
	}
	return "", &cv.ValidationError{Field: "format", Message: "must be one of png, jpeg, svg"}
}

// Extension is the file extension used for downloads.
func (f Format) Extension() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case SVG:
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// Filename derives the download name of an export from the CV title.
func Filename(title string, f Format) string {
	base := cv.GenerateSafeFilename(title)
	if base == "" {
		base = "cv"
	}
	return base + "." + f.Extension()
}
