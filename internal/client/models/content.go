// Package models holds the FlashVault domain types: the documents pinned to
// content-addressed storage, their in-memory views, local journal rows and
// the notices shown to the user.
package models

import (
	"strings"
	"time"
)

type Kind string

const (
	KindFlashcard    Kind = "flashcard"
	KindDeck         Kind = "deck"
	KindUnrecognized Kind = ""
)

// Source records where a library entry came from. Ledger entries take
// precedence over pin-list entries for the same CID.
type Source int

const (
	SourcePinList Source = iota
	SourceLedger
)

// FlashcardContent is the JSON document pinned for a flashcard.
type FlashcardContent struct {
	Question    string `json:"question" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
	Owner       string `json:"owner,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	OriginalCid string `json:"originalCid,omitempty"`
}

// DeckCard is a flashcard snapshot embedded in a deck document.
type DeckCard struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	IpfsCid  string `json:"ipfsCid,omitempty"`
}

// DeckContent is the JSON document pinned for a deck.
type DeckContent struct {
	Name          string     `json:"name" validate:"required"`
	Description   string     `json:"description" validate:"required"`
	Flashcards    []DeckCard `json:"flashcards" validate:"required,dive"`
	FlashcardCids []string   `json:"flashcardCids,omitempty"`
	Creator       string     `json:"creator,omitempty"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	UpdatedAt     string     `json:"updatedAt,omitempty"`
	OriginalCid   string     `json:"originalCid,omitempty"`
}

// Timestamp formats t the way content documents store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp is the inverse of Timestamp. Unparseable values give the
// zero time so such entries sort last.
func ParseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
