package models

import (
	"fmt"
	"strings"
	"time"
)

// Pin metadata key/value names.
const (
	KeyType  = "type"
	KeyOwner = "owner"
)

// PinMetadata is attached to every published document.
type PinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

// Pin is one row of the pinning service's listing.
type Pin struct {
	CID       string
	Name      string
	KeyValues map[string]string
	PinnedAt  time.Time
}

// NewPinMetadata builds the metadata for a freshly published document:
// "<kind>-<unix ms>" or "<kind>-updated-<unix ms>" for edits.
func NewPinMetadata(kind Kind, owner string, edited bool, now time.Time) PinMetadata {
	name := fmt.Sprintf("%s-%d", kind, now.UnixMilli())
	if edited {
		name = fmt.Sprintf("%s-updated-%d", kind, now.UnixMilli())
	}
	kv := map[string]string{KeyType: string(kind)}
	if owner != "" {
		kv[KeyOwner] = owner
	}
	return PinMetadata{Name: name, KeyValues: kv}
}

// LooksLike reports whether the pin is a candidate for kind, judging by the
// name prefix or the type key. The fetched content still has to validate.
func (p Pin) LooksLike(kind Kind) bool {
	if strings.HasPrefix(p.Name, string(kind)+"-") {
		return true
	}
	return p.KeyValues[KeyType] == string(kind)
}
