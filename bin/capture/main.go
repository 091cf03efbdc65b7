package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"screenshot-assertion/internal/assert"
	"screenshot-assertion/internal/capture"
	"screenshot-assertion/internal/env"
	"screenshot-assertion/internal/logging"
	"screenshot-assertion/internal/report"
	"screenshot-assertion/internal/storage"
)

type CaptureResult struct {
	ScreenshotPath string `json:"screenshotPath"`
	HTMLPath       string `json:"htmlPath"`
	Outcome        string `json:"outcome,omitempty"`
	DiffPixels     int    `json:"diffPixels,omitempty"`
	ArtifactPath   string `json:"artifactPath,omitempty"`
}

type headers []string

func (h *headers) String() string {
	return strings.Join(*h, ", ")
}

func (h *headers) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func main() {
	_ = godotenv.Load()

	var directory string
	var format string
	var selector string
	var maskSelectors string
	var delay time.Duration
	var viewportWidth int
	var viewportHeight int
	var userAgent string
	var chromeDevtoolsProtocolURL string
	var expected string
	var message string
	var testContext string
	var testMethod string
	var headers headers
	flag.StringVar(&directory, "directory", env.OrDefault("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&format, "format", env.OrDefault("FORMAT", "png"), "Output format (png or jpeg)")
	flag.StringVar(&selector, "selector", env.OrDefault("SELECTOR", ""), "Capture only the first element matching this CSS selector")
	flag.StringVar(&maskSelectors, "mask-selectors", env.OrDefault("MASK_SELECTORS", ""), "Comma-separated list of CSS selectors to mask during capture")
	flag.DurationVar(&delay, "delay", env.OrDefault("DELAY", 3*time.Second), "Delay before capturing")
	flag.IntVar(&viewportWidth, "viewport-width", env.OrDefault("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", env.OrDefault("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.StringVar(&userAgent, "user-agent", env.OrDefault("USER_AGENT", ""), "User-Agent string to use for requests")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", env.OrDefault("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.StringVar(&expected, "expected", env.OrDefault("EXPECTED", ""), "Compare the capture against this baseline")
	flag.StringVar(&message, "message", env.OrDefault("MESSAGE", ""), "Failure message reported on mismatch")
	flag.StringVar(&testContext, "context", env.OrDefault("TEST_CONTEXT", "capture"), "Test context used in artifact names")
	flag.StringVar(&testMethod, "method", env.OrDefault("TEST_METHOD", ""), "Test method used in artifact names")
	flag.Var(&headers, "H", "Add HTTP header (can be used multiple times, e.g., -H 'Accept: text/html' -H 'Authorization: Bearer token')")
	flag.BoolVar(&logging.Debug, "debug", env.OrDefault("DEBUG", false), "Human readable logs")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("url not specified")
	}
	url := args[0]

	ctx := context.Background()

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	config := capture.DefaultPlaywrightConfig()
	if format != "" {
		config.Format = format
	}
	if delay > 0 {
		config.Delay = delay
	}
	if chromeDevtoolsProtocolURL != "" {
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		config.Headless = false
	}
	if viewportWidth > 0 {
		config.ViewportWidth = viewportWidth
	}
	if viewportHeight > 0 {
		config.ViewportHeight = viewportHeight
	}
	if userAgent != "" {
		config.UserAgent = userAgent
	}

	capturer, err := capture.NewPlaywrightCapturer(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create capturer: %v", err)
	}

	result, err := capturer.Capture(ctx, url, capture.CaptureOptions{
		Selector:      selector,
		MaskSelectors: capture.SplitSelectors(maskSelectors),
		Headers:       capture.ParseHeaders(headers),
	})
	if err != nil {
		log.Fatalf("Failed to capture screenshot: %v", err)
	}

	timestamp := time.Now().Format("20060102150405")
	urlHash := fmt.Sprintf("%x", sha256.Sum256([]byte(url)))[:16]
	baseKey := fmt.Sprintf("capture/%s/%s", urlHash, timestamp)

	var output CaptureResult
	{
		eg, ctx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			path, err := s.Put(ctx, fmt.Sprintf("%s.%s", baseKey, config.Format), result.Screenshot)
			if err != nil {
				return err
			}
			output.ScreenshotPath = path
			return nil
		})

		eg.Go(func() error {
			path, err := s.Put(ctx, fmt.Sprintf("%s.html", baseKey), result.HTML)
			if err != nil {
				return err
			}
			output.HTMLPath = path
			return nil
		})

		if err := eg.Wait(); err != nil {
			log.Fatalf("Failed to upload: %v", err)
		}
	}

	mismatch := false
	if expected != "" {
		if testMethod == "" {
			testMethod = urlHash
		}
		comparator := &assert.Comparator{
			Storage: s,
			Sink:    report.LogSink{Log: logging.Logr(logger)},
			Log:     logging.Logr(logger),
		}
		expectedData, err := s.Get(ctx, expected)
		if err != nil {
			log.Fatalf("Failed to read expected screenshot: %v", err)
		}
		ctx := report.WithTest(ctx, report.Test{Context: testContext, Method: testMethod})
		compared, err := comparator.CompareBytes(ctx, result.Screenshot, expectedData, message)
		if err != nil && !errors.Is(err, assert.ErrMismatch) {
			log.Fatalf("Failed to compare screenshots: %v", err)
		}
		mismatch = err != nil
		output.Outcome = compared.Outcome.String()
		output.DiffPixels = compared.DiffPixels
		output.ArtifactPath = compared.ArtifactPath
	}

	if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	if mismatch {
		os.Exit(1)
	}
}
