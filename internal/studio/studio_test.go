package studio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petai/internal/domain"
	"petai/internal/imageref"
	"petai/internal/prompt"
	"petai/internal/providers/gemini"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type instantTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

type fakeStyles struct {
	style string
	err   error
	calls int
}

func (f *fakeStyles) GenerateStyle(ctx context.Context, referer string) (string, error) {
	f.calls++
	return f.style, f.err
}

type fakeImages struct {
	mu       sync.Mutex
	requests []gemini.Request
	body     []byte
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeImages) Generate(ctx context.Context, req gemini.Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.body, f.err
}

const okBody = `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"R0VORVJBVEVE"}}]}}]}`

var petPhoto = imageref.Image{MIMEType: "image/jpeg", Data: "/9j/UEVU"}

type loadingRecorder struct {
	mu      sync.Mutex
	states  []State
	clears  int
	wasBusy bool
}

func (r *loadingRecorder) record(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wasBusy && !st.Loading {
		r.clears++
	}
	r.wasBusy = st.Loading
	r.states = append(r.states, st)
}

func superhero(t *testing.T) domain.StyleOption {
	t.Helper()
	opt, ok := domain.LookupStyle("Superhero")
	require.True(t, ok)
	require.Equal(t, "as a superhero with costume, cape, special powers", opt.Prompt)
	return opt
}

func TestGenerateSuperheroEndToEnd(t *testing.T) {
	var sent map[string]any
	calls := 0
	images, err := gemini.NewClient(gemini.Options{
		APIKey:  "test-key",
		Referer: "http://localhost:3000",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			return jsonResponse(http.StatusOK, okBody), nil
		})},
		Timer: newInstantTimer(),
	})
	require.NoError(t, err)

	rec := &loadingRecorder{}
	s := New(Options{Images: images, OnChange: rec.record})

	res, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: superhero(t)})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "image/png", res.Image.MIMEType)
	assert.Equal(t, "R0VORVJBVEVE", res.Image.Data)
	assert.Equal(t, prompt.Prefix+" as a superhero with costume, cape, special powers, "+prompt.Suffix, res.Prompt)

	parts := sent["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, res.Prompt, parts[0].(map[string]any)["text"])

	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "data:image/png;base64,R0VORVJBVEVE", st.Result)
	assert.True(t, st.ResultOpen)
	assert.Empty(t, st.Error)
	assert.Equal(t, 1, rec.clears)
}

func TestGenerateFailsAfterAllAttempts(t *testing.T) {
	calls := 0
	timer := newInstantTimer()
	images, err := gemini.NewClient(gemini.Options{
		APIKey:  "test-key",
		Referer: "http://localhost:3000",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return jsonResponse(http.StatusInternalServerError, "attempt failure"), nil
		})},
		Timer: timer,
	})
	require.NoError(t, err)

	rec := &loadingRecorder{}
	s := New(Options{Images: images, OnChange: rec.record})

	res, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: superhero(t)})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, timer.delays)
	assert.Contains(t, err.Error(), "all attempts failed")
	assert.Contains(t, err.Error(), "attempt failure")
	assert.ErrorIs(t, err, domain.ErrBackend)
	assert.True(t, res.Image.IsZero())

	st := s.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Result)
	assert.False(t, st.ResultOpen)
	assert.Equal(t, err.Error(), st.Error)
	assert.Equal(t, 1, rec.clears)
}

func TestGenerateRandomStyleUsesGeneratedStyle(t *testing.T) {
	styles := &fakeStyles{style: "as a robot"}
	images := &fakeImages{body: []byte(okBody)}
	s := New(Options{Styles: styles, Images: images, Referer: "https://petai.example.com"})

	res, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: domain.RandomStyle})
	require.NoError(t, err)

	assert.Equal(t, 1, styles.calls)
	assert.Equal(t, "as a robot", res.GeneratedStyle)
	require.Len(t, images.requests, 1)
	assert.Equal(t, prompt.Assemble("as a robot"), images.requests[0].Prompt)
	assert.Equal(t, "https://petai.example.com", images.requests[0].Referer)
	assert.Equal(t, petPhoto, images.requests[0].Image)

	st := s.State()
	assert.Equal(t, "as a robot", st.GeneratedStyle)
	assert.False(t, st.GeneratingStyle)
}

func TestGenerateRandomStyleFallsBack(t *testing.T) {
	styles := &fakeStyles{err: errors.New("openrouter down")}
	images := &fakeImages{body: []byte(okBody)}
	s := New(Options{Styles: styles, Images: images})

	italian := domain.StyleOption{Title: domain.RandomStyleTitleItalian, Prompt: domain.RandomStylePrompt}
	res, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: italian})
	require.NoError(t, err)

	assert.Equal(t, prompt.FallbackStyle, res.GeneratedStyle)
	assert.Equal(t, prompt.Assemble(prompt.FallbackStyle), images.requests[0].Prompt)
	assert.Equal(t, prompt.FallbackStyle, s.State().GeneratedStyle)
}

func TestGenerateCompleteGeneratedStyleIsNotDuplicated(t *testing.T) {
	complete := prompt.Prefix + " as a robot, " + prompt.Suffix
	images := &fakeImages{body: []byte(okBody)}
	s := New(Options{Styles: &fakeStyles{style: complete}, Images: images})

	_, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: domain.RandomStyle})
	require.NoError(t, err)
	assert.Equal(t, complete, images.requests[0].Prompt)
}

func TestGenerateCompleteGeneratedStyleWithTrailingPunctuation(t *testing.T) {
	complete := prompt.Prefix + " as a robot, " + prompt.Suffix + "."
	images := &fakeImages{body: []byte(okBody)}
	s := New(Options{Styles: &fakeStyles{style: complete}, Images: images})

	res, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: domain.RandomStyle})
	require.NoError(t, err)
	require.Len(t, images.requests, 1)
	assert.Equal(t, complete, images.requests[0].Prompt)
	assert.Equal(t, 1, strings.Count(images.requests[0].Prompt, prompt.Suffix))
	assert.Equal(t, complete, res.Prompt)
}

func TestGenerateRequiresImageAndStyle(t *testing.T) {
	rec := &loadingRecorder{}
	images := &fakeImages{body: []byte(okBody)}
	s := New(Options{Images: images, OnChange: rec.record})

	_, err := s.Generate(context.Background(), Input{Style: superhero(t)})
	assert.ErrorIs(t, err, domain.ErrUserInput)
	_, err = s.Generate(context.Background(), Input{Image: petPhoto})
	assert.ErrorIs(t, err, domain.ErrUserInput)

	assert.Empty(t, images.requests)
	assert.Empty(t, rec.states)
}

func TestGenerateExtractionFailure(t *testing.T) {
	images := &fakeImages{body: []byte(`{"candidates":[]}`)}
	s := New(Options{Images: images})

	_, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: superhero(t)})
	assert.ErrorIs(t, err, gemini.ErrNoCandidate)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Result)
	assert.NotEmpty(t, st.Error)
}

func TestGenerateSingleFlight(t *testing.T) {
	images := &fakeImages{
		body:    []byte(okBody),
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	s := New(Options{Images: images})
	style := superhero(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: style})
		done <- err
	}()

	<-images.started
	assert.True(t, s.Busy())
	assert.True(t, s.State().Loading)

	_, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: superhero(t)})
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)
	assert.True(t, s.State().Loading)

	close(images.block)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
	assert.False(t, s.State().Loading)

	images.started = nil
	images.block = nil
	_, err = s.Generate(context.Background(), Input{Image: petPhoto, Style: superhero(t)})
	require.NoError(t, err)
	assert.Len(t, images.requests, 2)
}

func TestPopups(t *testing.T) {
	s := New(Options{Images: &fakeImages{body: []byte(okBody)}})

	s.OpenResult()
	assert.False(t, s.State().ResultOpen)

	_, err := s.Generate(context.Background(), Input{Image: petPhoto, Style: superhero(t)})
	require.NoError(t, err)
	s.CloseResult()
	assert.False(t, s.State().ResultOpen)
	s.OpenResult()
	assert.True(t, s.State().ResultOpen)

	s.OpenGallery("/examples/dog1-cyberpunk.png")
	st := s.State()
	assert.True(t, st.GalleryOpen)
	assert.Equal(t, "/examples/dog1-cyberpunk.png", st.GalleryImage)
	s.CloseGallery()
	st = s.State()
	assert.False(t, st.GalleryOpen)
	assert.Empty(t, st.GalleryImage)
}
