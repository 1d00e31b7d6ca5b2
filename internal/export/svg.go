package export

import (
	"fmt"
	"strconv"
	"strings"
)

const xhtmlNS = "http://www.w3.org/1999/xhtml"

// wrapSVG embeds serialized XHTML markup and its stylesheet into an SVG
// document of the given CSS pixel size.
func wrapSVG(width, height float64, css, markup string) string {
	w := strconv.FormatFloat(width, 'f', -1, 64)
	h := strconv.FormatFloat(height, 'f', -1, 64)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`, w, h, w, h)
	b.WriteString(`<foreignObject x="0" y="0" width="100%" height="100%">`)
	fmt.Fprintf(&b, `<div xmlns="%s" style="background:#ffffff;width:100%%;height:100%%">`, xhtmlNS)
	if strings.TrimSpace(css) != "" {
		b.WriteString("<style><![CDATA[")
		b.WriteString(strings.ReplaceAll(css, "]]>", "]]]]><![CDATA[>"))
		b.WriteString("]]></style>")
	}
	b.WriteString(markup)
	b.WriteString("</div></foreignObject></svg>")
	return b.String()
}
