package types

import "testing"

func TestTrackIDRoundTrip(t *testing.T) {
	track := &Track{CreatedEpoch: 1756100000, SortSuffix: "a1b2c3"}
	id := track.TrackID()
	if id != "1756100000-a1b2c3" {
		t.Fatalf("TrackID = %q", id)
	}
	epoch, suffix, err := ParseTrackID(id)
	if err != nil {
		t.Fatalf("ParseTrackID: %v", err)
	}
	if epoch != track.CreatedEpoch || suffix != track.SortSuffix {
		t.Fatalf("round trip mismatch: %d %q", epoch, suffix)
	}
}

func TestParseTrackIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "12345", "-abc", "12345-", "abc-def"} {
		if _, _, err := ParseTrackID(id); err == nil {
			t.Fatalf("expected error for %q", id)
		}
	}
}
