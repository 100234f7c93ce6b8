package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"petai/internal/infra"
	"petai/internal/storage"
	"petai/internal/thumbnail"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	var (
		srcFlag     string
		dstFlag     string
		sizeFlag    int
		workersFlag int
	)
	flag.StringVar(&srcFlag, "src", "public/examples", "directory with the original example images")
	flag.StringVar(&dstFlag, "dst", "public/thumbnails", "directory the thumbnails are written to")
	flag.IntVar(&sizeFlag, "size", thumbnail.DefaultSize, "thumbnail edge in pixels")
	flag.IntVar(&workersFlag, "workers", thumbnail.DefaultWorkers, "images processed in parallel")
	flag.Parse()

	logger := infra.NewLoggerTo(os.Stderr, "development", false)

	if _, err := os.Stat(srcFlag); err != nil {
		fmt.Fprintf(os.Stderr, "source directory %q not readable: %v\n", srcFlag, err)
		os.Exit(1)
	}
	src, err := storage.NewFileStore(srcFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("thumbnails: source store")
	}
	dst, err := storage.NewFileStore(dstFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("thumbnails: destination store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	reports, err := thumbnail.Batch(ctx, src, dst, sizeFlag, workersFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("thumbnails: batch stopped")
	}

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info().
		Int("total", len(reports)).
		Int("failed", failed).
		Str("dst", dst.BasePath()).
		Msg("thumbnails: done")
	if failed > 0 {
		os.Exit(1)
	}
}
