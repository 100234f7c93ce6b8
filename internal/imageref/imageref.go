// Package imageref handles displayable image references: base64 data URLs
// and the file names used when saving them.
package imageref

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"petai/internal/domain"
)

const defaultMIME = "image/png"

// Image is a base64 payload with its mime type.
type Image struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FromBytes encodes raw image bytes. An empty mime type is sniffed from the content.
func FromBytes(mimeType string, data []byte) Image {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return Image{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}
}

// ParseDataURL splits "data:{mime};base64,{payload}" into its parts.
func ParseDataURL(ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: image is not a data url", domain.ErrUserInput)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return Image{}, fmt.Errorf("%w: data url has no payload", domain.ErrUserInput)
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return Image{}, fmt.Errorf("%w: data url must be base64 encoded", domain.ErrUserInput)
	}
	if mimeType == "" {
		return Image{}, fmt.Errorf("%w: data url has no mime type", domain.ErrUserInput)
	}
	return Image{MIMEType: mimeType, Data: payload}, nil
}

// IsZero reports whether the image carries no payload.
func (i Image) IsZero() bool {
	return i.Data == ""
}

// DataURL renders the image as a self-contained reference usable for display and download.
func (i Image) DataURL() string {
	mimeType := i.MIMEType
	if mimeType == "" {
		mimeType = defaultMIME
	}
	return "data:" + mimeType + ";base64," + i.Data
}

// Bytes decodes the base64 payload.
func (i Image) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(i.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var urlExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// Extension infers a file extension from a data URL mime type or a URL path.
// Unknown references default to ".png".
func Extension(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		meta, _, _ := strings.Cut(strings.TrimPrefix(ref, "data:"), ";")
		if ext, ok := mimeExtensions[strings.ToLower(meta)]; ok {
			return ext
		}
		return ".png"
	}
	if idx := strings.LastIndex(ref, "."); idx >= 0 {
		ext := strings.ToLower(ref[idx+1:])
		if _, ok := urlExtensions[ext]; ok {
			return "." + ext
		}
	}
	return ".png"
}

// DownloadFilename returns the timestamped name used when saving ref,
// e.g. petai-2025-01-02_03-04-05.jpg.
func DownloadFilename(ref string, now time.Time) string {
	return "petai-" + now.UTC().Format("2006-01-02_15-04-05") + Extension(ref)
}
