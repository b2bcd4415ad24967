package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/go-supertonic/internal/tts"
)

type fakeSynth struct {
	wav      []byte
	err      error
	lastText string
	lastOpts tts.Options
	delay    time.Duration
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice string, opts tts.Options) ([]byte, error) {
	f.lastText = text
	f.lastOpts = opts

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.wav, f.err
}

type fakeVoices struct {
	voices []tts.Voice
}

func (f fakeVoices) List() []tts.Voice { return f.voices }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func newTestHandler(synth Synthesizer, voices VoiceLister, opts ...Option) http.Handler {
	opts = append(opts, WithLogger(quietLogger()))
	return NewHandler(synth, voices, opts...)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "", want: slog.LevelInfo},
		{input: "info", want: slog.LevelInfo},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(&fakeSynth{}, fakeVoices{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestVoicesEndpoint(t *testing.T) {
	h := newTestHandler(&fakeSynth{}, fakeVoices{voices: []tts.Voice{{ID: "zoe", Path: "/v/zoe.json"}}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/voices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var voices []tts.Voice
	if err := json.Unmarshal(rec.Body.Bytes(), &voices); err != nil {
		t.Fatal(err)
	}
	if len(voices) != 1 || voices[0].ID != "zoe" {
		t.Errorf("voices = %v", voices)
	}
}

func TestVoicesEndpointEmptyIsArray(t *testing.T) {
	h := newTestHandler(&fakeSynth{}, fakeVoices{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/voices", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func postTTS(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tts", strings.NewReader(body))
	h.ServeHTTP(rec, req)
	return rec
}

func TestTTSSuccess(t *testing.T) {
	synth := &fakeSynth{wav: []byte("RIFFfakewav")}
	h := newTestHandler(synth, fakeVoices{})

	rec := postTTS(h, `{"text":"hello","voice":"zoe"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", ct)
	}
	if rec.Body.String() != "RIFFfakewav" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if synth.lastText != "hello" {
		t.Errorf("synthesized text = %q, want hello", synth.lastText)
	}
}

func TestTTSRequestOverridesOptions(t *testing.T) {
	synth := &fakeSynth{wav: []byte("x")}
	defaults := tts.DefaultOptions()
	h := newTestHandler(synth, fakeVoices{}, WithSynthDefaults(defaults))

	rec := postTTS(h, `{"text":"hi","speed":1.4,"steps":8,"silence":0.1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if synth.lastOpts.Speed != 1.4 {
		t.Errorf("Speed = %v, want 1.4", synth.lastOpts.Speed)
	}
	if synth.lastOpts.TotalSteps != 8 {
		t.Errorf("TotalSteps = %d, want 8", synth.lastOpts.TotalSteps)
	}
	if synth.lastOpts.SilenceSeconds != 0.1 {
		t.Errorf("SilenceSeconds = %v, want 0.1", synth.lastOpts.SilenceSeconds)
	}
	// Unset fields keep server defaults.
	if synth.lastOpts.MaxChunkChars != defaults.MaxChunkChars {
		t.Errorf("MaxChunkChars = %d, want default %d", synth.lastOpts.MaxChunkChars, defaults.MaxChunkChars)
	}
}

func TestTTSValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing text", body: `{"voice":"zoe"}`, wantStatus: http.StatusBadRequest},
		{name: "zero speed", body: `{"text":"hi","speed":0}`, wantStatus: http.StatusBadRequest},
		{name: "negative steps", body: `{"text":"hi","steps":-1}`, wantStatus: http.StatusBadRequest},
	}

	h := newTestHandler(&fakeSynth{wav: []byte("x")}, fakeVoices{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postTTS(h, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestTTSMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&fakeSynth{}, fakeVoices{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tts", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestTTSTextTooLarge(t *testing.T) {
	h := newTestHandler(&fakeSynth{wav: []byte("x")}, fakeVoices{}, WithMaxTextBytes(10))

	rec := postTTS(h, fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", 11)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestTTSVoiceNotFound(t *testing.T) {
	synth := &fakeSynth{err: fmt.Errorf("%w: ghost", tts.ErrVoiceNotFound)}
	h := newTestHandler(synth, fakeVoices{})

	rec := postTTS(h, `{"text":"hi","voice":"ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTTSSynthesisError(t *testing.T) {
	synth := &fakeSynth{err: errors.New("graph exploded")}
	h := newTestHandler(synth, fakeVoices{})

	rec := postTTS(h, `{"text":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestTTSTimeout(t *testing.T) {
	synth := &fakeSynth{wav: []byte("x"), delay: 200 * time.Millisecond}
	h := newTestHandler(synth, fakeVoices{}, WithRequestTimeout(10*time.Millisecond))

	rec := postTTS(h, `{"text":"hi"}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}
