package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"petai/internal/domain"
	"petai/internal/imageref"
	"petai/internal/infra"
	"petai/internal/providers/gemini"
	"petai/internal/providers/openrouter"
	"petai/internal/storage"
	"petai/internal/studio"
)

var (
	generateImage string
	generateStyle string
	generateOut   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Transform a pet photo with a style",
	Long: `Transform a pet photo with a style.

The style is a catalog title (see 'petai styles') or free text describing
the look. The random style asks the style model to invent one.

Examples:
  petai generate --image dog.jpg --style "Superhero"
  petai generate --image cat.png --style "✨ Random AI Style ✨" --out ./results
  petai generate --image cat.png --style "as a lighthouse keeper in a storm"`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateImage, "image", "", "pet photo to transform (required)")
	generateCmd.Flags().StringVar(&generateStyle, "style", domain.RandomStyleTitle, "style title or free-text description")
	generateCmd.Flags().StringVar(&generateOut, "out", ".", "directory the result is saved to")
	_ = generateCmd.MarkFlagRequired("image")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	data, err := os.ReadFile(generateImage)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	img := imageref.FromBytes("", data)
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return fmt.Errorf("%s does not look like an image (%s)", generateImage, img.MIMEType)
	}

	s, err := newStudio(cfg, &logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := s.Generate(ctx, studio.Input{Image: img, Style: resolveStyleFlag(generateStyle)})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	store, err := storage.NewFileStore(generateOut)
	if err != nil {
		return err
	}
	raw, err := res.Image.Bytes()
	if err != nil {
		return err
	}
	key, err := store.Write(ctx, imageref.DownloadFilename(res.Image.DataURL(), time.Now()), raw)
	if err != nil {
		return err
	}
	saved := filepath.Join(store.BasePath(), filepath.FromSlash(key))

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, map[string]string{
			"file":           saved,
			"mimeType":       res.Image.MIMEType,
			"prompt":         res.Prompt,
			"generatedStyle": res.GeneratedStyle,
		})
	}
	if res.GeneratedStyle != "" {
		fmt.Fprintf(out, "Style:  %s\n", res.GeneratedStyle)
	}
	fmt.Fprintf(out, "Prompt: %s\n", res.Prompt)
	fmt.Fprintf(out, "Saved:  %s\n", saved)
	return nil
}

// resolveStyleFlag maps a catalog title to its option; anything else is
// used as the style description itself.
func resolveStyleFlag(value string) domain.StyleOption {
	if opt, ok := domain.LookupStyle(value); ok {
		return opt
	}
	value = strings.TrimSpace(value)
	return domain.StyleOption{Title: value, Prompt: value}
}

func newStudio(cfg *infra.Config, logger *infra.Logger, progress io.Writer) (*studio.Studio, error) {
	styles, err := openrouter.NewClient(openrouter.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		BaseURL: cfg.OpenRouterBaseURL,
		Title:   cfg.OpenRouterTitle,
		Referer: cfg.Referer(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	images, err := gemini.NewClient(gemini.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		Referer:     cfg.Referer(),
		Logger:      logger,
		MaxAttempts: cfg.ImageMaxAttempts,
		BaseDelay:   cfg.ImageRetryBase,
	})
	if err != nil {
		return nil, err
	}
	return studio.New(studio.Options{
		Styles:   styles,
		Images:   images,
		Referer:  cfg.Referer(),
		Logger:   logger,
		OnChange: progressPrinter(progress),
	}), nil
}

// progressPrinter reports the transitions a user cares about.
func progressPrinter(w io.Writer) func(studio.State) {
	var prev studio.State
	return func(st studio.State) {
		switch {
		case st.GeneratingStyle && !prev.GeneratingStyle:
			fmt.Fprintln(w, "Inventing a style...")
		case st.GeneratedStyle != "" && st.GeneratedStyle != prev.GeneratedStyle:
			fmt.Fprintf(w, "Style ready: %s\n", st.GeneratedStyle)
		case st.Loading && !prev.Loading:
			fmt.Fprintln(w, "Generating image...")
		case st.Error != "" && st.Error != prev.Error:
			fmt.Fprintf(w, "Failed: %s\n", st.Error)
		case !st.Loading && prev.Loading && st.Result != "":
			fmt.Fprintln(w, "Done.")
		}
		prev = st
	}
}
