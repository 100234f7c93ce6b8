package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"petai/internal/domain"
	"petai/internal/infra"
	"petai/internal/providers/gemini"
	"petai/internal/studio"
)

const maxRequestBytes = 20 << 20

// ImageClient is the image backend as the handlers use it: single attempts
// for the proxy route, retried calls for the orchestrated route.
type ImageClient interface {
	GenerateOnce(ctx context.Context, req gemini.Request) ([]byte, error)
	Generate(ctx context.Context, req gemini.Request) ([]byte, error)
}

type App struct {
	StyleGen  studio.StyleGenerator
	ImageGen  ImageClient
	Extractor studio.Extractor
	Logger    infra.Logger
}

func NewApp(styles studio.StyleGenerator, images ImageClient, logger infra.Logger) *App {
	return &App{
		StyleGen:  styles,
		ImageGen:  images,
		Extractor: gemini.NewExtractor(&logger),
		Logger:    logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

// fail maps err onto a status code and logs server-side failures.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	a.error(w, status, err.Error())
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload too large")
			return false
		}
		a.error(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
