package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petai/internal/domain"
	"petai/internal/studio"
)

func TestResolveStyleFlag(t *testing.T) {
	opt := resolveStyleFlag("superhero")
	assert.Equal(t, "Superhero", opt.Title)
	assert.Equal(t, "as a superhero with costume, cape, special powers", opt.Prompt)

	assert.True(t, domain.IsRandom(resolveStyleFlag(domain.RandomStyleTitleItalian)))

	custom := resolveStyleFlag("  as a lighthouse keeper ")
	assert.Equal(t, domain.StyleOption{Title: "as a lighthouse keeper", Prompt: "as a lighthouse keeper"}, custom)
}

func TestPrintStyles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStyles(&buf, domain.Styles()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(domain.Styles()))
	assert.Contains(t, lines[0], domain.RandomStylePrompt)
}

func TestPrintGalleryJSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	var buf bytes.Buffer
	require.NoError(t, printGallery(&buf, domain.Gallery()))

	var got []domain.GalleryExample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, domain.Gallery(), got)
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	report := progressPrinter(&buf)

	report(studio.State{Loading: true})
	report(studio.State{Loading: true, GeneratingStyle: true})
	report(studio.State{Loading: true, GeneratedStyle: "as a robot"})
	report(studio.State{Loading: true, GeneratedStyle: "as a robot", Result: "data:image/png;base64,AA==", ResultOpen: true})
	report(studio.State{GeneratedStyle: "as a robot", Result: "data:image/png;base64,AA==", ResultOpen: true})

	assert.Equal(t, "Generating image...\nInventing a style...\nStyle ready: as a robot\nDone.\n", buf.String())
}
