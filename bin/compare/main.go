package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"screenshot-assertion/internal/assert"
	"screenshot-assertion/internal/batch"
	"screenshot-assertion/internal/callback"
	diffimage "screenshot-assertion/internal/diff/image"
	"screenshot-assertion/internal/env"
	"screenshot-assertion/internal/logging"
	"screenshot-assertion/internal/report"
	"screenshot-assertion/internal/storage"
)

type PairResult struct {
	Name         string                `json:"name,omitempty"`
	Outcome      string                `json:"outcome"`
	HashMatched  bool                  `json:"hashMatched,omitempty"`
	DiffPixels   int                   `json:"diffPixels,omitempty"`
	DimDiffer    bool                  `json:"dimDiffer,omitempty"`
	Regions      []diffimage.Rectangle `json:"regions,omitempty"`
	ArtifactPath string                `json:"artifactPath,omitempty"`
	Message      string                `json:"message,omitempty"`
	Error        string                `json:"error,omitempty"`
}

func newPairResult(name string, result *assert.Result, err error) PairResult {
	r := PairResult{Name: name}
	if result != nil {
		r.Outcome = result.Outcome.String()
		r.HashMatched = result.HashMatched
		r.DiffPixels = result.DiffPixels
		r.DimDiffer = result.DimDiffer
		r.Regions = result.Regions
		r.ArtifactPath = result.ArtifactPath
		r.Message = result.Message
	}
	if err != nil && !errors.Is(err, assert.ErrMismatch) {
		r.Outcome = "error"
		r.Error = err.Error()
	}
	return r
}

func defaultDirectory() string {
	return filepath.Join("test-output", "html", "scr", time.Now().Format("02.01.2006"))
}

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 when every pair is equal, 1 otherwise.
func run() int {
	_ = godotenv.Load()

	var actual string
	var expected string
	var message string
	var testContext string
	var testMethod string
	var manifest string
	var concurrency int
	var backend string
	var directory string
	var bucket string
	var highlight string
	var reportPath string
	var callbackURL string
	var callbackRetryOn string
	var callbackMaxRetries uint
	flag.StringVar(&actual, "actual", env.OrDefault("ACTUAL", ""), "Actual screenshot path or storage URL")
	flag.StringVar(&expected, "expected", env.OrDefault("EXPECTED", ""), "Expected screenshot path or storage URL")
	flag.StringVar(&message, "message", env.OrDefault("MESSAGE", ""), "Failure message reported on mismatch")
	flag.StringVar(&testContext, "context", env.OrDefault("TEST_CONTEXT", ""), "Test context (suite or class) used in artifact names")
	flag.StringVar(&testMethod, "method", env.OrDefault("TEST_METHOD", ""), "Test method used in artifact names")
	flag.StringVar(&manifest, "manifest", env.OrDefault("MANIFEST", ""), "YAML manifest of pairs to compare instead of -actual/-expected")
	flag.IntVar(&concurrency, "concurrency", env.OrDefault("CONCURRENCY", 0), "Pairs compared in parallel (0 means GOMAXPROCS)")
	flag.StringVar(&backend, "storage", env.OrDefault("STORAGE", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", env.OrDefault("DIRECTORY", defaultDirectory()), "Artifact directory, or key prefix for s3")
	flag.StringVar(&bucket, "bucket", env.OrDefault("BUCKET", ""), "S3 bucket")
	flag.StringVar(&highlight, "highlight", env.OrDefault("HIGHLIGHT", "xor"), "Highlight strategy (xor, heatmap or brightness)")
	flag.StringVar(&reportPath, "report", env.OrDefault("REPORT", ""), "Append report entries to this HTML file")
	flag.StringVar(&callbackURL, "callback-url", env.OrDefault("CALLBACK_URL", ""), "POST the JSON results to this URL")
	flag.StringVar(&callbackRetryOn, "callback-retry-on", env.OrDefault("CALLBACK_RETRY_ON", "gateway-error,connect-failure,retriable-4xx"), "Retry conditions for the callback")
	flag.UintVar(&callbackMaxRetries, "callback-max-retries", env.OrDefault("CALLBACK_MAX_RETRIES", uint(3)), "Maximum callback retries")
	flag.BoolVar(&logging.Debug, "debug", env.OrDefault("DEBUG", false), "Human readable logs")
	flag.Parse()

	args := flag.Args()
	if actual == "" && len(args) > 0 {
		actual = args[0]
	}
	if expected == "" && len(args) > 1 {
		expected = args[1]
	}
	if manifest == "" && (actual == "" || expected == "") {
		log.Fatalf("either -manifest or both -actual and -expected must be specified")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	s, err := storage.New(ctx, storage.Config{
		Backend:   backend,
		Directory: directory,
		Bucket:    bucket,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	highlighter, err := diffimage.ParseHighlighter(highlight)
	if err != nil {
		log.Fatalf("Failed to parse highlight strategy: %v", err)
	}

	sinks := []report.Sink{report.LogSink{Log: logging.Logr(logger)}}
	if reportPath != "" {
		htmlSink, f, err := report.OpenHTMLFile(reportPath)
		if err != nil {
			log.Fatalf("Failed to open report: %v", err)
		}
		defer f.Close()
		sinks = append(sinks, htmlSink)
	}

	comparator := &assert.Comparator{
		Storage: s,
		Sink:    report.Multi(sinks...),
		Differ:  diffimage.NewPixelDiff(highlighter),
		Log:     logging.Logr(logger),
	}

	var results []PairResult
	ok := true
	if manifest != "" {
		results, ok, err = runManifest(ctx, comparator, manifest, concurrency, logging.Logr(logger))
		if err != nil {
			log.Fatalf("Failed to run manifest: %v", err)
		}
	} else {
		ctx := report.WithTest(ctx, report.Test{Context: testContext, Method: testMethod})
		result, err := comparator.CompareFiles(ctx, actual, expected, message)
		pr := newPairResult("", result, err)
		results = append(results, pr)
		ok = err == nil
		if pr.Error != "" {
			logger.Error("failed to compare screenshots", "error", err)
		}
	}

	if callbackURL != "" {
		client, err := callback.New(callback.Config{
			URL:        callbackURL,
			RetryOn:    callbackRetryOn,
			MaxRetries: callbackMaxRetries,
			Timeout:    30 * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to create callback client: %v", err)
		}
		if err := client.Post(ctx, results); err != nil {
			logger.Error("failed to post results", "error", err)
			ok = false
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if !ok {
		return 1
	}
	return 0
}

func runManifest(ctx context.Context, comparator *assert.Comparator, path string, concurrency int, logger logr.Logger) ([]PairResult, bool, error) {
	m, err := batch.LoadManifest(path)
	if err != nil {
		return nil, false, err
	}

	runner := &batch.Runner{
		Comparator:  comparator,
		Concurrency: concurrency,
		Log:         logger,
	}
	summary, err := runner.Run(ctx, m)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to compare pairs: %w", err)
	}

	results := make([]PairResult, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		results = append(results, newPairResult(o.Pair.Name, o.Result, o.Err))
	}
	return results, summary.OK(), nil
}
