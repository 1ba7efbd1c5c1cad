package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
)

// MediaToolsService wraps the ffmpeg/ffprobe binaries the extend pipeline
// needs. It is synchronous and should be called from request handlers only for
// short inputs; anything long-running belongs in a worker.
type MediaToolsService interface {
	AssertReady(ctx context.Context) error
	WriteTempFile(ctx context.Context, data []byte, suffix string) (string, func(), error)
	ProbeDuration(ctx context.Context, path string) (float64, error)
	// FadeLoopToMP3 loops the input loops times end to end, applies a fade-in
	// and fade-out, and transcodes to 320kbps MP3 at outPath.
	FadeLoopToMP3(ctx context.Context, inPath, outPath string, loops int, totalDuration float64) error
}

type mediaToolsService struct {
	log *logger.Logger

	ffmpegPath  string
	ffprobePath string

	workRoot string

	defaultTimeout time.Duration
}

func NewMediaToolsService(log *logger.Logger) MediaToolsService {
	slog := log.With("service", "MediaToolsService")
	return &mediaToolsService{
		log:            slog,
		ffmpegPath:     "ffmpeg",
		ffprobePath:    "ffprobe",
		workRoot:       "/tmp/subliminalgen-media",
		defaultTimeout: 10 * time.Minute,
	}
}

func (m *mediaToolsService) AssertReady(ctx context.Context) error {
	for _, bin := range []string{m.ffmpegPath, m.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (m *mediaToolsService) WriteTempFile(ctx context.Context, data []byte, suffix string) (string, func(), error) {
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("mkdir workRoot: %w", err)
	}
	h := sha256.Sum256(data)
	base := hex.EncodeToString(h[:])[:16]
	if suffix != "" && !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	path := filepath.Join(m.workRoot, fmt.Sprintf("%s%s", base, suffix))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}

func (m *mediaToolsService) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, m.ffprobePath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, truncateOutput(out))
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}

// buildFadeLoopArgs assembles the ffmpeg invocation for loop+fade+transcode.
// Kept separate so the argument shape is testable without ffmpeg installed.
func buildFadeLoopArgs(inPath, outPath string, loops int, totalDuration, fadeSecs float64) []string {
	args := []string{"-y"}
	if loops > 1 {
		args = append(args, "-stream_loop", strconv.Itoa(loops-1))
	}
	fadeOutStart := totalDuration - fadeSecs
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}
	filter := fmt.Sprintf("afade=t=in:st=0:d=%g,afade=t=out:st=%g:d=%g", fadeSecs, fadeOutStart, fadeSecs)
	args = append(args,
		"-i", inPath,
		"-af", filter,
		"-codec:a", "libmp3lame",
		"-b:a", "320k",
		outPath,
	)
	return args
}

func (m *mediaToolsService) FadeLoopToMP3(ctx context.Context, inPath, outPath string, loops int, totalDuration float64) error {
	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	if loops < 1 {
		loops = 1
	}
	args := buildFadeLoopArgs(inPath, outPath, loops, totalDuration, 2.0)
	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, truncateOutput(out))
	}
	return nil
}

func truncateOutput(out []byte) string {
	out = bytes.TrimSpace(out)
	if len(out) > 2000 {
		out = out[len(out)-2000:]
	}
	return string(out)
}
