package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"screenshot-assertion/internal/assert"
	diffimage "screenshot-assertion/internal/diff/image"
	"screenshot-assertion/internal/env"
	"screenshot-assertion/internal/logging"
	"screenshot-assertion/internal/runnable"
	"screenshot-assertion/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var backend string
	var directory string
	var bucket string
	var highlight string
	flag.StringVar(&backend, "storage", env.OrDefault("STORAGE", "file"), "Storage backend for diff artifacts (file or s3)")
	flag.StringVar(&directory, "directory", env.OrDefault("DIRECTORY", "/tmp/screenshot-assertion"), "Artifact directory, or key prefix for s3")
	flag.StringVar(&bucket, "bucket", env.OrDefault("BUCKET", ""), "S3 bucket")
	flag.StringVar(&highlight, "highlight", env.OrDefault("HIGHLIGHT", "xor"), "Highlight strategy (xor, heatmap or brightness)")
	flag.BoolVar(&logging.Debug, "debug", env.OrDefault("DEBUG", false), "Human readable logs and pprof endpoints")
	flag.Parse()

	ctx := context.Background()

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

	server := runnable.NewServer(&assert.Comparator{
		Storage: s,
		Differ:  diffimage.NewPixelDiff(highlighter),
	})
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
