package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"petai/internal/domain"
)

type recordingTimer struct {
	delays []time.Duration
	c      chan time.Time
	onWait func()
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (r *recordingTimer) Start(d time.Duration) {
	r.delays = append(r.delays, d)
	if r.onWait != nil {
		r.onWait()
		return
	}
	r.c <- time.Now()
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time {
	return r.c
}

func newRetryClient(t *testing.T, timer *recordingTimer, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		Referer:    "http://localhost:3000",
		HTTPClient: &http.Client{Transport: rt},
		Timer:      timer,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestGenerateAttemptsMinOfFailuresAndCeiling(t *testing.T) {
	for failures := 0; failures <= 5; failures++ {
		calls := 0
		timer := newRecordingTimer()
		client := newRetryClient(t, timer, func(r *http.Request) (*http.Response, error) {
			calls++
			if calls <= failures {
				return jsonResponse(http.StatusServiceUnavailable, "overloaded"), nil
			}
			return jsonResponse(http.StatusOK, imageBody), nil
		})

		_, err := client.Generate(context.Background(), testRequest())

		wantCalls := failures + 1
		if failures >= 3 {
			wantCalls = 3
		}
		if calls != wantCalls {
			t.Fatalf("failures=%d: calls = %d, want %d", failures, calls, wantCalls)
		}
		if failures >= 3 && err == nil {
			t.Fatalf("failures=%d: expected error", failures)
		}
		if failures < 3 && err != nil {
			t.Fatalf("failures=%d: unexpected error %v", failures, err)
		}
	}
}

func TestGenerateWaitsExponentially(t *testing.T) {
	timer := newRecordingTimer()
	client := newRetryClient(t, timer, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, "boom"), nil
	})

	_, err := client.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(timer.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", timer.delays, want)
	}
	for i := range want {
		if timer.delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, timer.delays[i], want[i])
		}
	}
}

func TestGenerateAggregatesLastError(t *testing.T) {
	calls := 0
	client := newRetryClient(t, newRecordingTimer(), func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 3 {
			return jsonResponse(http.StatusOK, `{"error":{"message":"final failure"}}`), nil
		}
		return jsonResponse(http.StatusBadGateway, "early failure"), nil
	})

	_, err := client.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.HasPrefix(err.Error(), "all attempts failed") {
		t.Fatalf("err = %q, want aggregated message", err)
	}
	if !strings.Contains(err.Error(), "final failure") {
		t.Fatalf("err = %q, want last error message", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "final failure" {
		t.Fatalf("err should unwrap to the last APIError, got %v", err)
	}
}

func TestGenerateDoesNotRetryConfigurationErrors(t *testing.T) {
	timer := newRecordingTimer()
	client, err := NewClient(Options{
		APIKey: "test-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatalf("unexpected request")
			return nil, nil
		})},
		Timer: timer,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	req := testRequest()
	req.Referer = ""

	_, err = client.Generate(context.Background(), req)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if strings.Contains(err.Error(), "all attempts failed") {
		t.Fatalf("configuration errors must not be aggregated: %v", err)
	}
	if len(timer.delays) != 0 {
		t.Fatalf("delays = %v, want none", timer.delays)
	}
}

func TestGenerateStopsWhenContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	timer := newRecordingTimer()
	timer.onWait = cancel
	client := newRetryClient(t, timer, func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusInternalServerError, "boom"), nil
	})

	_, err := client.Generate(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGenerateHonoursConfiguredAttempts(t *testing.T) {
	calls := 0
	timer := newRecordingTimer()
	client, err := NewClient(Options{
		APIKey:      "test-key",
		Referer:     "http://localhost:3000",
		MaxAttempts: 1,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return jsonResponse(http.StatusInternalServerError, "boom"), nil
		})},
		Timer: timer,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Generate(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 || len(timer.delays) != 0 {
		t.Fatalf("calls = %d delays = %v, want one call and no waits", calls, timer.delays)
	}
}
