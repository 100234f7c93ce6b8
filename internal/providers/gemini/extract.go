package gemini

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"petai/internal/domain"
	"petai/internal/imageref"
	"petai/internal/infra"
)

var (
	ErrDecodeResponse   = fmt.Errorf("%w: response is not valid json", domain.ErrMalformedResponse)
	ErrNoCandidate      = fmt.Errorf("%w: no candidate found in the response", domain.ErrMalformedResponse)
	ErrInvalidCandidate = fmt.Errorf("%w: invalid candidate structure", domain.ErrMalformedResponse)
	ErrImageNotFound    = fmt.Errorf("%w: image not found in the response", domain.ErrMalformedResponse)
)

// ExtractError carries the raw response body next to the extraction failure.
type ExtractError struct {
	Err error
	Raw []byte
}

func (e *ExtractError) Error() string {
	return e.Err.Error()
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      *content `json:"content"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Extractor locates the generated image inside a generateContent response.
type Extractor struct {
	logger *infra.Logger
}

// NewExtractor returns an Extractor that logs raw bodies to logger. A nil
// logger discards them.
func NewExtractor(logger *infra.Logger) *Extractor {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Extractor{logger: logger}
}

// Extract returns the first inline image of the first candidate.
func (e *Extractor) Extract(raw []byte) (imageref.Image, error) {
	e.logger.Debug().RawJSON("response", jsonOrString(raw)).Msg("gemini: extracting image")

	img, err := extract(raw)
	if err != nil {
		e.logger.Error().
			Err(err).
			RawJSON("response", jsonOrString(raw)).
			Msg("gemini: image extraction failed")
		return imageref.Image{}, &ExtractError{Err: err, Raw: raw}
	}
	return img, nil
}

func extract(raw []byte) (imageref.Image, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return imageref.Image{}, fmt.Errorf("%w: %v", ErrDecodeResponse, err)
	}
	if len(resp.Candidates) == 0 {
		return imageref.Image{}, ErrNoCandidate
	}
	first := resp.Candidates[0]
	if first.Content == nil || first.Content.Parts == nil {
		return imageref.Image{}, ErrInvalidCandidate
	}
	for _, p := range first.Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		mimeType := p.InlineData.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return imageref.Image{MIMEType: mimeType, Data: p.InlineData.Data}, nil
	}
	return imageref.Image{}, ErrImageNotFound
}

// jsonOrString keeps zerolog output valid when the body is not JSON.
func jsonOrString(raw []byte) []byte {
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
