package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
)

// MusicGenerator produces an encoded WAV byte stream for a rendered prompt.
// Implementations must return an error rather than placeholder audio.
type MusicGenerator interface {
	Generate(ctx context.Context, prompt string, durationSecs int, profile GenProfile) ([]byte, error)
}

type lyriaClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
}

func NewLyriaClient(log *logger.Logger) (MusicGenerator, error) {
	apiKey := os.Getenv("LYRIA_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing LYRIA_API_KEY")
	}

	baseURL := os.Getenv("LYRIA_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := os.Getenv("LYRIA_MODEL")
	if model == "" {
		model = "models/lyria-realtime-exp"
	}

	// IMPORTANT: default timeout higher for production generation workloads
	timeoutSec := 300
	if v := os.Getenv("LYRIA_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("LYRIA_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &lyriaClient{
		log:        log.With("service", "LyriaClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type lyriaHTTPError struct {
	StatusCode int
	Body       string
}

func (e *lyriaHTTPError) Error() string {
	return fmt.Sprintf("lyria http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	if code >= 500 && code <= 599 {
		return true
	}
	return false
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	// Cancellation is the caller giving up, never worth a retry. An attempt
	// deadline is, since the next attempt gets a fresh request.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}
	var httpErr *lyriaHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

// sleepCtx blocks for d or until ctx ends, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type lyriaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Config struct {
		DurationSeconds int     `json:"duration_seconds"`
		BPM             int     `json:"bpm,omitempty"`
		Density         float64 `json:"density,omitempty"`
		Brightness      float64 `json:"brightness,omitempty"`
		Scale           string  `json:"scale,omitempty"`
	} `json:"config"`
}

type lyriaGenerateResponse struct {
	AudioContent string `json:"audio_content"`
	SampleRate   int    `json:"sample_rate"`
	Channels     int    `json:"channels"`
	Error        struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *lyriaClient) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1beta/music:generate", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &lyriaHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *lyriaClient) Generate(ctx context.Context, prompt string, durationSecs int, profile GenProfile) ([]byte, error) {
	reqBody := lyriaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
	}
	reqBody.Config.DurationSeconds = durationSecs
	reqBody.Config.BPM = profile.BPM
	reqBody.Config.Density = profile.Density
	reqBody.Config.Brightness = profile.Brightness
	reqBody.Config.Scale = profile.Scale

	// exponential backoff: 1s, 2s, 4s (cap ~10s)
	backoff := 1 * time.Second

	var raw []byte
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, body, err := c.doOnce(ctx, reqBody)
		if err == nil {
			raw = body
			break
		}
		if !isRetryableErr(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("Lyria request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		if err := sleepCtx(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}

	var decoded lyriaGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("lyria decode error: %w", err)
	}
	if decoded.Error.Message != "" {
		return nil, fmt.Errorf("lyria generation error: %s", decoded.Error.Message)
	}
	if decoded.AudioContent == "" {
		return nil, fmt.Errorf("lyria returned no audio content")
	}
	pcm, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("lyria audio decode error: %w", err)
	}

	sampleRate := decoded.SampleRate
	if sampleRate == 0 {
		sampleRate = 48000
	}
	channels := decoded.Channels
	if channels == 0 {
		channels = 2
	}
	return wrapPCMInWAV(pcm, sampleRate, channels), nil
}

// wrapPCMInWAV prefixes raw 16-bit little-endian PCM with a canonical RIFF
// header so downstream tooling and browsers can play the bytes directly.
func wrapPCMInWAV(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
