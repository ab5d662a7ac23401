package models

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidBaseline marks a decoded payload that violates a structural
// invariant. Callers treat such a payload as absent and never merge it.
var ErrInvalidBaseline = errors.New("invalid baseline")

// identityPattern matches the fixed-length hex public identifier.
var identityPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// reservedKeys are follower-map keys that must never appear in a decoded
// payload. The record originates from an ecosystem where these property
// names are attack vectors, so any payload carrying them is rejected whole.
var reservedKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// ValidIdentity reports whether id is a well-formed identity key.
func ValidIdentity(id string) bool {
	return identityPattern.MatchString(id)
}

// Validate checks the structural and semantic invariants of a decoded
// baseline. A non-nil error means the whole record is unusable.
func (b *Baseline) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidBaseline)
	}
	if b.Version != BaselineVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidBaseline, b.Version)
	}
	if b.Created < 0 || b.LastUpdated < 0 {
		return fmt.Errorf("%w: negative timestamp", ErrInvalidBaseline)
	}
	if b.LastUpdated < b.Created {
		return fmt.Errorf("%w: lastUpdated before created", ErrInvalidBaseline)
	}
	if b.Followers == nil {
		return fmt.Errorf("%w: missing followers map", ErrInvalidBaseline)
	}
	for id, firstSeen := range b.Followers {
		if _, bad := reservedKeys[id]; bad {
			return fmt.Errorf("%w: reserved key %q", ErrInvalidBaseline, id)
		}
		if !ValidIdentity(id) {
			return fmt.Errorf("%w: malformed follower key", ErrInvalidBaseline)
		}
		if firstSeen < 0 {
			return fmt.Errorf("%w: negative firstSeen", ErrInvalidBaseline)
		}
	}
	return nil
}
