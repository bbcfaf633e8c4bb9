package cli

import (
	"context"
	"fmt"
	"strings"
)

// Study walks a deck card by card: Enter or r reveals, n/p move, q quits.
func (a *App) Study(ctx context.Context, cid string) error {
	s, err := a.library.Study(ctx, cid)
	if err != nil {
		return a.fail(err)
	}
	if s.Len() == 0 {
		fmt.Fprintln(a.out, "This deck has no readable cards.")
		return nil
	}

	for {
		card, _ := s.Current()
		fmt.Fprintf(a.out, "Card %d/%d\nQ: %s\n", s.Position()+1, s.Len(), card.Question)
		if s.Revealed() {
			fmt.Fprintf(a.out, "A: %s\n", card.Answer)
		}

		cmd, err := GetSimpleText(a.reader, "(r)eveal, (n)ext, (p)revious, (q)uit", a.out)
		if err != nil {
			return nil
		}
		switch strings.ToLower(cmd) {
		case "", "r":
			s.Reveal()
		case "n":
			if !s.Next() {
				fmt.Fprintln(a.out, "Last card.")
			}
		case "p":
			if !s.Previous() {
				fmt.Fprintln(a.out, "First card.")
			}
		case "q":
			return nil
		}
	}
}
