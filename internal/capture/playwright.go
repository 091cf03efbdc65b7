package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/xerrors"
)

type PlaywrightConfig struct {
	ViewportWidth  int
	ViewportHeight int

	FullPage bool
	// Format is "png" or "jpeg". Pixel comparison needs lossless input, so
	// png is the default.
	Format  string
	Quality int

	Timeout time.Duration
	Delay   time.Duration

	Headless                  bool
	UserAgent                 string
	ChromeDevtoolsProtocolURL string
}

func DefaultPlaywrightConfig() PlaywrightConfig {
	return PlaywrightConfig{
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		FullPage:       true,
		Format:         "png",
		Timeout:        30 * time.Second,
		Delay:          3 * time.Second,
		Headless:       true,
	}
}

type playwrightCapturer struct {
	config PlaywrightConfig
}

func NewPlaywrightCapturer(ctx context.Context, p PlaywrightConfig) (Capturer, error) {
	if p.Format != "png" && p.Format != "jpeg" {
		return nil, xerrors.Errorf("unsupported screenshot format: %s", p.Format)
	}
	return &playwrightCapturer{
		config: p,
	}, nil
}

func (c *playwrightCapturer) Capture(ctx context.Context, url string, options CaptureOptions) (*CaptureResult, error) {
	p, err := playwright.Run()
	if err != nil {
		return nil, xerrors.Errorf("failed to start playwright: %w", err)
	}
	defer p.Stop()

	var browser playwright.Browser

	if c.config.ChromeDevtoolsProtocolURL == "" {
		browser, err = p.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(c.config.Headless),
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to launch browser: %w", err)
		}
		defer browser.Close()
	} else {
		browser, err = p.Chromium.ConnectOverCDP(c.config.ChromeDevtoolsProtocolURL)
		if err != nil {
			return nil, xerrors.Errorf("failed to connect to browser via CDP at %s: %w", c.config.ChromeDevtoolsProtocolURL, err)
		}
	}

	pageOptions := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  c.config.ViewportWidth,
			Height: c.config.ViewportHeight,
		},
	}
	if c.config.UserAgent != "" {
		pageOptions.UserAgent = playwright.String(c.config.UserAgent)
	}
	page, err := browser.NewPage(pageOptions)
	if err != nil {
		return nil, xerrors.Errorf("failed to create new page: %w", err)
	}
	defer page.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			page.Close()
		case <-done:
		}
	}()
	defer close(done)

	if len(options.Headers) > 0 {
		if err := page.SetExtraHTTPHeaders(options.Headers); err != nil {
			return nil, xerrors.Errorf("failed to set HTTP headers: %w", err)
		}
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(c.config.Timeout.Milliseconds())),
	}); err != nil {
		return nil, xerrors.Errorf("failed to navigate to %s: %w", url, err)
	}

	if c.config.Delay > 0 {
		select {
		case <-time.After(c.config.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(options.MaskSelectors) > 0 {
		script, err := maskScript()
		if err != nil {
			return nil, err
		}
		if _, err := page.Evaluate(script, options.MaskSelectors); err != nil {
			return nil, xerrors.Errorf("failed to mask selectors: %w", err)
		}
	}

	htmlContent, err := page.Content()
	if err != nil {
		return nil, xerrors.Errorf("failed to get HTML content: %w", err)
	}

	var screenshotBytes []byte
	if options.Selector != "" {
		elementOptions := playwright.LocatorScreenshotOptions{
			Timeout: playwright.Float(float64(c.config.Timeout.Milliseconds())),
		}
		switch c.config.Format {
		case "png":
			elementOptions.Type = playwright.ScreenshotTypePng
		default:
			elementOptions.Type = playwright.ScreenshotTypeJpeg
			if c.config.Quality > 0 {
				elementOptions.Quality = playwright.Int(c.config.Quality)
			}
		}
		screenshotBytes, err = page.Locator(options.Selector).First().Screenshot(elementOptions)
	} else {
		pageScreenshotOptions := playwright.PageScreenshotOptions{
			FullPage: playwright.Bool(c.config.FullPage),
		}
		switch c.config.Format {
		case "png":
			pageScreenshotOptions.Type = playwright.ScreenshotTypePng
		default:
			pageScreenshotOptions.Type = playwright.ScreenshotTypeJpeg
			if c.config.Quality > 0 {
				pageScreenshotOptions.Quality = playwright.Int(c.config.Quality)
			}
		}
		screenshotBytes, err = page.Screenshot(pageScreenshotOptions)
	}
	if err != nil {
		return nil, xerrors.Errorf("failed to take screenshot: %w", err)
	}

	return &CaptureResult{
		Screenshot: screenshotBytes,
		HTML:       []byte(htmlContent),
	}, nil
}

// maskScript returns a page function that paints every element matching the
// given selectors solid black, so dynamic content does not show up as a diff.
func maskScript() (string, error) {
	unique := make([]byte, 8)
	if _, err := rand.Read(unique); err != nil {
		return "", xerrors.Errorf("failed to generate unique identifier: %w", err)
	}
	maskClassName := fmt.Sprintf("mask-%s", hex.EncodeToString(unique))

	maskCSS := fmt.Sprintf(`
.%s {
  position: relative !important;
}
.%s::after {
  content: "" !important;
  position: absolute !important;
  inset: 0 !important;
  background-color: black !important;
  z-index: 2147483646 !important;
  pointer-events: none !important;
}
`, maskClassName, maskClassName)

	return fmt.Sprintf(`(selectors) => {
	const style = document.createElement('style');
	style.textContent = %q;
	document.head.appendChild(style);

	for (const selector of selectors) {
		for (const element of document.querySelectorAll(selector)) {
			element.classList.add(%q);
		}
	}
}`, maskCSS, maskClassName), nil
}
