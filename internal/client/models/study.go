package models

// StudySession walks the cards of a deck one at a time, question first.
type StudySession struct {
	cards    []DeckCard
	pos      int
	revealed bool
}

func NewStudySession(d Deck) *StudySession {
	return &StudySession{cards: d.Flashcards}
}

func (s *StudySession) Len() int      { return len(s.cards) }
func (s *StudySession) Position() int { return s.pos }
func (s *StudySession) Revealed() bool {
	return s.revealed
}

// Current returns the card under the cursor, false for an empty deck.
func (s *StudySession) Current() (DeckCard, bool) {
	if len(s.cards) == 0 {
		return DeckCard{}, false
	}
	return s.cards[s.pos], true
}

func (s *StudySession) Reveal() { s.revealed = true }

// Next moves forward and hides the answer; it stops at the last card.
func (s *StudySession) Next() bool {
	if s.pos+1 >= len(s.cards) {
		return false
	}
	s.pos++
	s.revealed = false
	return true
}

// Previous moves back and hides the answer; it stops at the first card.
func (s *StudySession) Previous() bool {
	if s.pos == 0 {
		return false
	}
	s.pos--
	s.revealed = false
	return true
}
