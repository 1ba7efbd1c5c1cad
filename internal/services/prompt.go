package services

import "strings"

// RenderPrompt builds the text handed to the generator. The seed comes first,
// then one fragment per attribute group in a fixed order. A group with no
// values contributes nothing, not an empty fragment.
func RenderPrompt(req MusicRequest) string {
	parts := make([]string, 0, 4)
	if seed := strings.TrimSpace(req.Seed); seed != "" {
		parts = append(parts, seed)
	}
	if styles := normalizeAttrs(req.Styles); len(styles) > 0 {
		parts = append(parts, "in the style of "+strings.Join(styles, ", "))
	}
	if moods := normalizeAttrs(req.Moods); len(moods) > 0 {
		parts = append(parts, "with a "+strings.Join(moods, ", ")+" mood")
	}
	if instruments := normalizeAttrs(req.Instruments); len(instruments) > 0 {
		parts = append(parts, "featuring "+strings.Join(instruments, ", "))
	}
	return strings.Join(parts, ". ")
}
