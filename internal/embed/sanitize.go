// Package embed dispatches embedding calls to per-modality backends,
// derives deterministic logical-space keys, and batches inputs to respect
// provider rate limits and concurrency budgets.
package embed

import (
	"crypto/md5" //nolint:gosec // used only as a deterministic shortening hash, not for security
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/raggify/raggify-go/internal/metadata"
)

// spaceKeyPattern is the accepted shape for a sanitized space key.
var spaceKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_]{1,61}[A-Za-z0-9]$`)

var notAllowed = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Sanitize replaces any character outside [A-Za-z0-9_] with '_', left-pads
// with underscores if the result is shorter than 3 characters, and falls
// back to an MD5 hex digest when the replaced string is longer than 61
// characters (so the end padding can never push it past 63) — matching the
// space_key contract.
func Sanitize(s string) string {
	out := notAllowed.ReplaceAllString(s, "_")
	for len(out) < 3 {
		out = "_" + out
	}
	// Reserve headroom for the two-character end-padding below so the
	// post-padding length can never cross the 63-char bound.
	if len(out) > 61 {
		sum := md5.Sum([]byte(s)) //nolint:gosec
		return hex.EncodeToString(sum[:])
	}
	// Pad ends that are non-alphanumeric so the pattern's start/end
	// alphanumeric requirement holds even after replacement.
	if !isAlnum(out[0]) {
		out = "a" + out
	}
	if !isAlnum(out[len(out)-1]) {
		out = out + "a"
	}
	return out
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// ValidSpaceKey reports whether s matches the required space-key shape.
func ValidSpaceKey(s string) bool {
	return spaceKeyPattern.MatchString(s)
}

// SpaceKey derives the logical-space key for the triple (provider, model
// alias, modality): sanitize(provider + "_" + modelAlias + "_" + modTag).
func SpaceKey(provider, modelAlias string, mod metadata.Modality) string {
	raw := provider + "_" + modelAlias + "_" + mod.Tag()
	return Sanitize(strings.ToLower(raw))
}
