// Package export turns rendered CV documents into image files.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"cvforge/internal/templates"
)

// ErrRootNotFound is returned when the rendered document has no #cv-root node.
var ErrRootNotFound = errors.New("export root element not found")

// Exporter renders a document to the requested format.
type Exporter interface {
	Export(ctx context.Context, doc templates.Document, format Format) ([]byte, error)
}

const (
	deviceScaleFactor = 2
	jpegQuality       = 95
	viewportWidth     = 1240
	viewportHeight    = 1754
)

const whiteBackgroundCSS = `html, body { margin: 0 !important; background: #ffffff !important; }
#` + templates.RootID + ` { background: #ffffff !important; }`

const serializeRootJS = `() => {
  const rect = this.getBoundingClientRect();
  const css = Array.from(document.querySelectorAll('style')).map(s => s.textContent).join('\n');
  return {
    width: Math.ceil(rect.width),
    height: Math.ceil(rect.height),
    css: css,
    markup: new XMLSerializer().serializeToString(this),
  };
}`

// RodExporter drives a headless Chromium through go-rod. Every export gets
// its own browser process.
type RodExporter struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewRodExporter(timeout time.Duration, logger *slog.Logger) *RodExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodExporter{timeout: timeout, logger: logger}
}

// Export loads the document in headless Chromium and captures #cv-root.
func (e *RodExporter) Export(ctx context.Context, doc templates.Document, format Format) ([]byte, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(e.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Timeout(e.timeout)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: deviceScaleFactor,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := (proto.EmulationSetDefaultBackgroundColorOverride{
		Color: &proto.DOMRGBA{R: 255, G: 255, B: 255},
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set background: %w", err)
	}

	if err := page.SetDocumentContent(doc.HTML); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if err := page.AddStyleTag("", whiteBackgroundCSS); err != nil {
		return nil, fmt.Errorf("inject background css: %w", err)
	}

	found, root, err := page.Has("#" + templates.RootID)
	if err != nil {
		return nil, fmt.Errorf("query export root: %w", err)
	}
	if !found {
		return nil, ErrRootNotFound
	}

	e.logger.Debug("capturing cv",
		slog.String("template", string(doc.Template)),
		slog.String("format", string(format)),
	)

	switch format {
	case PNG:
		return capture(root, proto.PageCaptureScreenshotFormatPng, 0)
	case JPEG:
		return capture(root, proto.PageCaptureScreenshotFormatJpeg, jpegQuality)
	case SVG:
		return serializeSVG(root)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

func capture(root *rod.Element, format proto.PageCaptureScreenshotFormat, quality int) ([]byte, error) {
	data, err := root.Screenshot(format, quality)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", format, err)
	}
	return data, nil
}

func serializeSVG(root *rod.Element) ([]byte, error) {
	res, err := root.Eval(serializeRootJS)
	if err != nil {
		return nil, fmt.Errorf("serialize root: %w", err)
	}
	v := res.Value
	svg := wrapSVG(v.Get("width").Num(), v.Get("height").Num(), v.Get("css").Str(), v.Get("markup").Str())
	return []byte(svg), nil
}
