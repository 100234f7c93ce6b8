package imageref

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petai/internal/domain"
)

func TestParseDataURL(t *testing.T) {
	img, err := ParseDataURL("data:image/jpeg;base64,/9j/4AAQ")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, "/9j/4AAQ", img.Data)
	assert.Equal(t, "data:image/jpeg;base64,/9j/4AAQ", img.DataURL())
}

func TestParseDataURLRejectsMalformed(t *testing.T) {
	inputs := []string{
		"",
		"https://example.com/dog.png",
		"data:image/png;base64,",
		"data:image/png,abc",
		"data:;base64,abc",
	}
	for _, in := range inputs {
		_, err := ParseDataURL(in)
		require.ErrorIs(t, err, domain.ErrUserInput, "input %q", in)
	}
}

func TestFromBytesSniffsMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	img := FromBytes("", png)
	assert.Equal(t, "image/png", img.MIMEType)

	decoded, err := img.Bytes()
	require.NoError(t, err)
	assert.Equal(t, png, decoded)
}

func TestDataURLDefaultsMIME(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AAAA", Image{Data: "AAAA"}.DataURL())
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"data:image/jpeg;base64,AAAA":     ".jpg",
		"data:image/jpg;base64,AAAA":      ".jpg",
		"data:image/png;base64,AAAA":      ".png",
		"data:image/gif;base64,AAAA":      ".gif",
		"data:image/webp;base64,AAAA":     ".webp",
		"data:image/heic;base64,AAAA":     ".png",
		"/examples/dog1-cyberpunk.PNG":    ".png",
		"/examples/cat1-original.jpeg":    ".jpeg",
		"https://cdn.example.com/pet.bmp": ".png",
		"no-extension":                    ".png",
	}
	for ref, want := range cases {
		assert.Equal(t, want, Extension(ref), "ref %q", ref)
	}
}

func TestDownloadFilename(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	assert.Equal(t, "petai-2025-01-02_03-04-05.jpg", DownloadFilename("data:image/jpeg;base64,AAAA", now))

	local := now.In(time.FixedZone("CET", 3600))
	assert.Equal(t, "petai-2025-01-02_03-04-05.webp", DownloadFilename("/x/y.webp", local))
}
