package identity

import "strings"

// idMask replaces everything after the visible prefix of an id.
const idMask = "********************"

// MaskID hides a user id for logs and trace attributes. At most four leading
// characters stay visible, and never more than a quarter of the id.
func MaskID(id string) string {
	if id == "" {
		return ""
	}
	keep := min(4, len(id)/4)
	return id[:keep] + idMask
}

// MaskName hides a display name, keeping its first and last character.
// Names of up to two characters are fully masked.
func MaskName(name string) string {
	r := []rune(name)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 2:
		return strings.Repeat("*", 3)
	default:
		return string(r[0]) + "***" + string(r[len(r)-1])
	}
}
