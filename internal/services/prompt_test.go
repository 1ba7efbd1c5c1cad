package services

import "testing"

func TestRenderPromptFullRequest(t *testing.T) {
	req := MusicRequest{
		Seed:        "gentle rainfall over a forest",
		Styles:      []string{"Ambient"},
		Moods:       []string{"calm", "Dreamy"},
		Instruments: []string{"piano"},
	}
	want := "gentle rainfall over a forest. in the style of ambient. with a calm, dreamy mood. featuring piano"
	if got := RenderPrompt(req); got != want {
		t.Fatalf("RenderPrompt = %q, want %q", got, want)
	}
}

func TestRenderPromptOmitsEmptyGroups(t *testing.T) {
	tests := []struct {
		name string
		req  MusicRequest
		want string
	}{
		{
			"seed only",
			MusicRequest{Seed: "deep sleep tones"},
			"deep sleep tones",
		},
		{
			"no seed",
			MusicRequest{Styles: []string{"drone"}},
			"in the style of drone",
		},
		{
			"no moods",
			MusicRequest{Seed: "focus", Styles: []string{"lofi"}, Instruments: []string{"guitar"}},
			"focus. in the style of lofi. featuring guitar",
		},
		{
			"empty everything",
			MusicRequest{},
			"",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderPrompt(tc.req); got != tc.want {
				t.Fatalf("RenderPrompt = %q, want %q", got, tc.want)
			}
		})
	}
}
