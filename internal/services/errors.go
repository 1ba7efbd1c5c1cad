package services

import "errors"

// Failure kinds surfaced by the serve/generate pipeline. Each stage wraps its
// cause with exactly one of these so handlers can map to a status without
// string matching. A failed lookup is terminal: it must never be treated as a
// cache miss and fall through to generation.
var (
	ErrGenerationFailed  = errors.New("generation failed")
	ErrStorageFailed     = errors.New("storage failed")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrLookupFailed      = errors.New("lookup failed")
)
