// Package thumbnail renders the square previews shown in the gallery.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"regexp"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"petai/internal/storage"
)

const (
	DefaultSize    = 200
	DefaultWorkers = 4

	jpegQuality = 85
	webpQuality = 80
)

var imagePattern = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)$`)

// IsImage reports whether name has an extension the batch processes.
func IsImage(name string) bool {
	return imagePattern.MatchString(name)
}

// Square crops the largest centred square out of img and scales it to size x size.
func Square(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// Decode reads an image, using the file extension to pick the webp decoder.
func Decode(name string, data []byte) (image.Image, error) {
	if ext(name) == "webp" {
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode writes img in the format implied by name's extension.
func Encode(name string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	switch ext(name) {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, fmt.Errorf("encode gif: %w", err)
		}
	case "webp":
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
		if err != nil {
			return nil, fmt.Errorf("webp encoder options: %w", err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image type %q", name)
	}
	return buf.Bytes(), nil
}

// Report is the outcome for one file of a batch.
type Report struct {
	Name string
	Err  error
}

// Batch writes a size x size thumbnail of every image in src into dst under
// the same name. A file that fails is reported and the batch moves on; the
// returned error covers listing failures and cancellation only.
func Batch(ctx context.Context, src, dst *storage.FileStore, size, workers int) ([]Report, error) {
	if src == nil || dst == nil {
		return nil, errors.New("thumbnail: source and destination are required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := zerolog.Ctx(ctx)

	names, err := src.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("thumbnail: list source: %w", err)
	}
	images := names[:0]
	for _, name := range names {
		if IsImage(name) {
			images = append(images, name)
		}
	}

	reports := make([]Report, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range images {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := one(gctx, src, dst, name, size)
			reports[i] = Report{Name: name, Err: err}
			if err != nil {
				logger.Error().Err(err).Str("file", name).Msg("thumbnail: failed")
			} else {
				logger.Info().Str("file", name).Int("size", size).Msg("thumbnail: written")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, nil
}

func one(ctx context.Context, src, dst *storage.FileStore, name string, size int) error {
	data, err := src.Read(ctx, name)
	if err != nil {
		return err
	}
	img, err := Decode(name, data)
	if err != nil {
		return err
	}
	out, err := Encode(name, Square(img, size))
	if err != nil {
		return err
	}
	_, err = dst.Write(ctx, name, out)
	return err
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
