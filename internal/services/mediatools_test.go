package services

import (
	"strings"
	"testing"
)

func TestBuildFadeLoopArgs(t *testing.T) {
	tests := []struct {
		name          string
		loops         int
		totalDuration float64
		wantLoopFlag  bool
		wantFadeOut   string
	}{
		{"single pass", 1, 60, false, "afade=t=out:st=58:d=2"},
		{"three loops", 3, 180, true, "afade=t=out:st=178:d=2"},
		{"shorter than fade", 1, 1, false, "afade=t=out:st=0:d=2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := buildFadeLoopArgs("in.wav", "out.mp3", tc.loops, tc.totalDuration, 2.0)
			joined := strings.Join(args, " ")

			if tc.wantLoopFlag != strings.Contains(joined, "-stream_loop") {
				t.Fatalf("stream_loop presence wrong in %q", joined)
			}
			if tc.wantLoopFlag && !strings.Contains(joined, "-stream_loop 2") {
				t.Fatalf("expected -stream_loop 2 in %q", joined)
			}
			if !strings.Contains(joined, "afade=t=in:st=0:d=2") {
				t.Fatalf("missing fade-in in %q", joined)
			}
			if !strings.Contains(joined, tc.wantFadeOut) {
				t.Fatalf("missing %q in %q", tc.wantFadeOut, joined)
			}
			if !strings.Contains(joined, "libmp3lame") || !strings.Contains(joined, "320k") {
				t.Fatalf("missing mp3 transcode settings in %q", joined)
			}
			if args[len(args)-1] != "out.mp3" {
				t.Fatalf("output path must be the final argument, got %q", args[len(args)-1])
			}
		})
	}
}
