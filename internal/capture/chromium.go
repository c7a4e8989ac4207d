package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default capture parameters for the timetable snapshot.
// These should match the layout used by the /timetable page.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 900
	DefaultTimeoutSec = 30
)

// CaptureOptions defines parameters for a Chromium-based screenshot capture.
type CaptureOptions struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/timetable".
	URL string

	// OutputPath is where the PNG screenshot will be written, e.g.
	// "/var/lib/kaoqin/preview.png".
	OutputPath string

	// BasicAuthUser / BasicAuthPassword are sent as an Authorization
	// header when the server runs behind basic auth. Both empty disables
	// the header.
	BasicAuthUser     string
	BasicAuthPassword string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration
}

// CaptureTimetablePNG launches a headless Chromium instance via chromedp,
// navigates to opts.URL (typically /timetable), waits for the page to
// signal that rendering is complete, and captures a PNG screenshot at the
// requested resolution.
//
// Rendering-complete condition:
//   - The timetable root element exposes a data-ready attribute:
//     <div data-ready="true" ...>
//   - This function waits until `[data-ready="true"]` is visible before
//     taking the screenshot.
func CaptureTimetablePNG(parentCtx context.Context, opts CaptureOptions) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.BasicAuthUser != "" || opts.BasicAuthPassword != "" {
		token := base64.StdEncoding.EncodeToString(
			[]byte(opts.BasicAuthUser + ":" + opts.BasicAuthPassword))
		tasks = append(tasks,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{
				"Authorization": "Basic " + token,
			}),
		)
	}

	var png []byte
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
