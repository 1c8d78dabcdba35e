package tf

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeFrameID returns the canonical form of a frame id.
//
// Producers disagree on whether ids carry a leading slash ("/base_link" vs
// "base_link"); both name the same frame. Ids are NFC-normalised so visually
// identical ids from different encoders compare equal.
func NormalizeFrameID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimLeft(id, "/")
	return norm.NFC.String(id)
}
