// Package studio sequences one pet transformation: resolve the style,
// assemble the instruction, call the image model and extract the result.
// It keeps the state a front end renders (loading flags, result, error).
package studio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"petai/internal/domain"
	"petai/internal/imageref"
	"petai/internal/infra"
	"petai/internal/prompt"
	"petai/internal/providers/gemini"
)

// StyleGenerator invents a style body for the random style option.
type StyleGenerator interface {
	GenerateStyle(ctx context.Context, referer string) (string, error)
}

// ImageGenerator returns the raw image model response, retrying as it sees fit.
type ImageGenerator interface {
	Generate(ctx context.Context, req gemini.Request) ([]byte, error)
}

// Extractor pulls the generated image out of a raw response.
type Extractor interface {
	Extract(raw []byte) (imageref.Image, error)
}

type Options struct {
	Styles    StyleGenerator
	Images    ImageGenerator
	Extractor Extractor
	// Referer is forwarded to both backends.
	Referer string
	Logger  *infra.Logger
	// OnChange receives a snapshot after every state transition.
	OnChange func(State)
}

// State is what a front end renders.
type State struct {
	Loading         bool   `json:"loading"`
	GeneratingStyle bool   `json:"generatingStyle"`
	GeneratedStyle  string `json:"generatedStyle,omitempty"`
	Result          string `json:"result,omitempty"`
	Error           string `json:"error,omitempty"`
	ResultOpen      bool   `json:"resultOpen"`
	GalleryOpen     bool   `json:"galleryOpen"`
	GalleryImage    string `json:"galleryImage,omitempty"`
}

type Input struct {
	Image imageref.Image
	Style domain.StyleOption
}

type Result struct {
	Image          imageref.Image
	Prompt         string
	GeneratedStyle string
}

type Studio struct {
	styles    StyleGenerator
	images    ImageGenerator
	extractor Extractor
	referer   string
	logger    *infra.Logger
	onChange  func(State)

	running atomic.Bool

	mu    sync.Mutex
	state State
}

func New(opts Options) *Studio {
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = gemini.NewExtractor(logger)
	}
	return &Studio{
		styles:    opts.Styles,
		images:    opts.Images,
		extractor: extractor,
		referer:   strings.TrimSpace(opts.Referer),
		logger:    logger,
		onChange:  opts.OnChange,
	}
}

// State returns a snapshot of the current state.
func (s *Studio) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a generation is in flight.
func (s *Studio) Busy() bool {
	return s.running.Load()
}

// Generate runs one transformation. Only one may run at a time; a second
// call while one is in flight returns domain.ErrGenerationInProgress
// without touching state. The loading flag is always cleared on return.
func (s *Studio) Generate(ctx context.Context, in Input) (Result, error) {
	if in.Image.IsZero() || strings.TrimSpace(in.Style.Prompt) == "" {
		return Result{}, fmt.Errorf("studio: image and style are required: %w", domain.ErrUserInput)
	}
	if s.images == nil {
		return Result{}, fmt.Errorf("studio: no image generator: %w", domain.ErrConfiguration)
	}
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, domain.ErrGenerationInProgress
	}
	defer s.running.Store(false)

	s.update(func(st *State) {
		st.Loading = true
		st.GeneratedStyle = ""
		st.Error = ""
	})
	defer s.update(func(st *State) {
		st.Loading = false
		st.GeneratingStyle = false
	})

	res, err := s.run(ctx, in)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("style", in.Style.Title).
			Msg("studio: generation failed")
		s.update(func(st *State) {
			st.Error = err.Error()
			st.Result = ""
			st.ResultOpen = false
		})
		return Result{}, err
	}

	s.update(func(st *State) {
		st.Result = res.Image.DataURL()
		st.ResultOpen = true
	})
	return res, nil
}

func (s *Studio) run(ctx context.Context, in Input) (Result, error) {
	style := in.Style.Prompt
	generated := ""
	if domain.IsRandom(in.Style) {
		generated = s.resolveRandomStyle(ctx)
		style = generated
	}

	instruction := style
	// A generated style that is already a full instruction goes out as is.
	if generated == "" || !prompt.IsComplete(generated) {
		instruction = prompt.Assemble(style)
	}
	s.logger.Debug().
		Str("style", in.Style.Title).
		Str("prompt", instruction).
		Msg("studio: prompt assembled")

	raw, err := s.images.Generate(ctx, gemini.Request{
		Prompt:  instruction,
		Image:   in.Image,
		Referer: s.referer,
	})
	if err != nil {
		return Result{}, err
	}

	img, err := s.extractor.Extract(raw)
	if err != nil {
		return Result{}, err
	}
	return Result{Image: img, Prompt: instruction, GeneratedStyle: generated}, nil
}

// resolveRandomStyle never fails: backend errors become the fallback style.
func (s *Studio) resolveRandomStyle(ctx context.Context) string {
	s.update(func(st *State) { st.GeneratingStyle = true })

	style := ""
	if s.styles != nil {
		generated, err := s.styles.GenerateStyle(ctx, s.referer)
		if err != nil {
			s.logger.Warn().Err(err).Msg("studio: style generation failed; using fallback style")
		} else {
			style = strings.TrimSpace(generated)
		}
	}
	if style == "" {
		style = prompt.FallbackStyle
	}

	s.update(func(st *State) {
		st.GeneratingStyle = false
		st.GeneratedStyle = style
	})
	return style
}

// OpenResult shows the result popup when there is a result to show.
func (s *Studio) OpenResult() {
	s.update(func(st *State) { st.ResultOpen = st.Result != "" })
}

func (s *Studio) CloseResult() {
	s.update(func(st *State) { st.ResultOpen = false })
}

// OpenGallery shows a gallery image in the popup.
func (s *Studio) OpenGallery(image string) {
	s.update(func(st *State) {
		st.GalleryImage = image
		st.GalleryOpen = true
	})
}

func (s *Studio) CloseGallery() {
	s.update(func(st *State) {
		st.GalleryOpen = false
		st.GalleryImage = ""
	})
}

func (s *Studio) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}
