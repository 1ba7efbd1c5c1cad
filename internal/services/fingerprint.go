package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// MusicRequest is the normalized shape of a serve/generate call after the
// handler has bound it. Category and tier never enter the fingerprint:
// category scopes the lookup instead, and tier only caps duration.
type MusicRequest struct {
	Category     string
	Seed         string
	Styles       []string
	Moods        []string
	Instruments  []string
	DurationSecs int
	VIP          bool
}

const (
	durationBandShort  = "short"
	durationBandMedium = "medium"
	durationBandLong   = "long"
)

// durationBand buckets a requested duration so that near-identical requests
// share cached assets. Boundaries are inclusive on the medium side.
func durationBand(secs int) string {
	switch {
	case secs < 60:
		return durationBandShort
	case secs <= 180:
		return durationBandMedium
	default:
		return durationBandLong
	}
}

// normalizeAttrs trims, lowercases, drops empties, and sorts a user-supplied
// attribute list so that ordering, casing, and stray whitespace cannot change
// the fingerprint.
func normalizeAttrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Fingerprint derives the cache identity of a request. Two requests that
// differ only in seed text, category, tier, attribute order, attribute casing,
// or by a few seconds within the same duration band produce the same value.
func Fingerprint(req MusicRequest) string {
	var b strings.Builder
	b.WriteString("styles:")
	b.WriteString(strings.Join(normalizeAttrs(req.Styles), ","))
	b.WriteString("|moods:")
	b.WriteString(strings.Join(normalizeAttrs(req.Moods), ","))
	b.WriteString("|instruments:")
	b.WriteString(strings.Join(normalizeAttrs(req.Instruments), ","))
	b.WriteString("|duration:")
	b.WriteString(durationBand(req.DurationSecs))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
