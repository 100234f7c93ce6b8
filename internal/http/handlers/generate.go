package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"petai/internal/domain"
	"petai/internal/imageref"
	"petai/internal/middleware"
	"petai/internal/providers/gemini"
	"petai/internal/studio"
)

type generateImagePayload struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

type generatePayload struct {
	Image string          `json:"image"`
	Style json.RawMessage `json:"style"`
}

type generateResponse struct {
	Image          string `json:"image"`
	MimeType       string `json:"mimeType"`
	Prompt         string `json:"prompt"`
	GeneratedStyle string `json:"generatedStyle,omitempty"`
}

// GenerateStyle asks the style model for a fresh style line.
func (a *App) GenerateStyle(w http.ResponseWriter, r *http.Request) {
	if a.StyleGen == nil {
		a.error(w, http.StatusInternalServerError, "style generator not configured")
		return
	}
	style, err := a.StyleGen.GenerateStyle(r.Context(), r.Header.Get(middleware.RefererHeader))
	if err != nil {
		a.logger(r).Error().Err(err).Msg("generate style failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]string{"style": style})
}

// GenerateImage proxies a single image generation attempt and passes the
// upstream JSON through untouched.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var p generateImagePayload
	if !a.decode(w, r, &p) {
		return
	}
	if a.ImageGen == nil {
		a.error(w, http.StatusInternalServerError, "image generator not configured")
		return
	}
	raw, err := a.ImageGen.GenerateOnce(r.Context(), gemini.Request{
		Prompt:  p.Prompt,
		Image:   imageref.Image{MIMEType: strings.TrimSpace(p.MimeType), Data: strings.TrimSpace(p.ImageBase64)},
		Referer: r.Header.Get(middleware.RefererHeader),
	})
	if err != nil {
		a.logger(r).Error().Err(err).Msg("generate image failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Generate runs the full transformation server-side: style resolution,
// prompt assembly, retried generation and extraction.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var p generatePayload
	if !a.decode(w, r, &p) {
		return
	}
	img, err := imageref.ParseDataURL(p.Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	style, err := parseStyle(p.Style)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	if a.ImageGen == nil {
		a.error(w, http.StatusInternalServerError, "image generator not configured")
		return
	}

	logger := a.logger(r)
	s := studio.New(studio.Options{
		Styles:    a.StyleGen,
		Images:    a.ImageGen,
		Extractor: a.Extractor,
		Referer:   r.Header.Get(middleware.RefererHeader),
		Logger:    logger,
	})
	res, err := s.Generate(r.Context(), studio.Input{Image: img, Style: style})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Image:          res.Image.DataURL(),
		MimeType:       res.Image.MIMEType,
		Prompt:         res.Prompt,
		GeneratedStyle: res.GeneratedStyle,
	})
}

// parseStyle accepts either a catalog title or an explicit {title, prompt}.
func parseStyle(raw json.RawMessage) (domain.StyleOption, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.StyleOption{}, fmt.Errorf("style is required: %w", domain.ErrUserInput)
	}

	var title string
	if err := json.Unmarshal(raw, &title); err == nil {
		opt, ok := domain.LookupStyle(title)
		if !ok {
			return domain.StyleOption{}, fmt.Errorf("unknown style %q: %w", title, domain.ErrUserInput)
		}
		return opt, nil
	}

	var opt domain.StyleOption
	if err := json.Unmarshal(raw, &opt); err != nil {
		return domain.StyleOption{}, fmt.Errorf("style must be a title or an object: %w", domain.ErrUserInput)
	}
	opt.Title = strings.TrimSpace(opt.Title)
	opt.Prompt = strings.TrimSpace(opt.Prompt)
	if opt.Prompt == "" {
		known, ok := domain.LookupStyle(opt.Title)
		if !ok {
			return domain.StyleOption{}, fmt.Errorf("style prompt is required: %w", domain.ErrUserInput)
		}
		return known, nil
	}
	return opt, nil
}
