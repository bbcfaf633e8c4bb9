package models

import "time"

// Flashcard is a library entry. IpfsCid is its only durable identity.
type Flashcard struct {
	Question  string
	Answer    string
	Owner     string
	Timestamp time.Time
	IpfsCid   string
	Source    Source
}

func FlashcardFromContent(cid string, c *FlashcardContent) Flashcard {
	ts := ParseTimestamp(c.UpdatedAt)
	if ts.IsZero() {
		ts = ParseTimestamp(c.CreatedAt)
	}
	return Flashcard{
		Question:  c.Question,
		Answer:    c.Answer,
		Owner:     c.Owner,
		Timestamp: ts,
		IpfsCid:   cid,
		Source:    SourcePinList,
	}
}

// Deck is a library entry for a deck document.
type Deck struct {
	Name          string
	Description   string
	Flashcards    []DeckCard
	FlashcardCids []string
	Timestamp     time.Time
	Owner         string
	DeckCid       string
	Source        Source
}

func DeckFromContent(cid string, c *DeckContent) Deck {
	ts := ParseTimestamp(c.UpdatedAt)
	if ts.IsZero() {
		ts = ParseTimestamp(c.CreatedAt)
	}
	return Deck{
		Name:          c.Name,
		Description:   c.Description,
		Flashcards:    c.Flashcards,
		FlashcardCids: c.FlashcardCids,
		Timestamp:     ts,
		Owner:         c.Creator,
		DeckCid:       cid,
		Source:        SourcePinList,
	}
}

// Content rebuilds the pinned document of d, used as the base of an edit.
func (d Deck) Content() DeckContent {
	cards := make([]DeckCard, len(d.Flashcards))
	copy(cards, d.Flashcards)
	cids := make([]string, len(d.FlashcardCids))
	copy(cids, d.FlashcardCids)
	return DeckContent{
		Name:          d.Name,
		Description:   d.Description,
		Flashcards:    cards,
		FlashcardCids: cids,
		Creator:       d.Owner,
		CreatedAt:     Timestamp(d.Timestamp),
	}
}
