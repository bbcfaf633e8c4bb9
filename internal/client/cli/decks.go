package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
)

// AddDeck collects a deck with its new cards and optional existing flashcard
// CIDs, then runs the create flow.
func (a *App) AddDeck(ctx context.Context) error {
	f := &a.deckForm
	var err error
	if f.Name, err = GetTextWithDefault(a.reader, "Deck name", f.Name, a.out); err != nil {
		return err
	}
	if f.Description, err = GetTextWithDefault(a.reader, "Description", f.Description, a.out); err != nil {
		return err
	}

	if len(f.Registered) > 0 {
		fmt.Fprintf(a.out, "%d cards from the last attempt are already on the ledger and will be included.\n", len(f.Registered))
	}
	if len(f.Cards) > 0 && !Confirm(a.reader, fmt.Sprintf("Keep %d new cards from the last attempt?", len(f.Cards)), a.out) {
		f.Cards = nil
	}
	for {
		q, err := GetSimpleText(a.reader, fmt.Sprintf("Card %d question (empty to finish)", len(f.Cards)+1), a.out)
		if err != nil {
			return err
		}
		if q == "" {
			break
		}
		ans, err := GetSimpleText(a.reader, fmt.Sprintf("Card %d answer", len(f.Cards)+1), a.out)
		if err != nil {
			return err
		}
		f.Cards = append(f.Cards, models.FlashcardForm{Question: q, Answer: ans})
	}

	if existing := a.library.Flashcards(); len(existing) > 0 {
		fmt.Fprintln(a.out, "Flashcards in your library:")
		for _, c := range existing {
			fmt.Fprintf(a.out, "  %s  %s\n", c.IpfsCid, c.Question)
		}
		if f.SelectedCids, err = GetList(a.reader, "CIDs of existing flashcards to include", a.out); err != nil {
			return err
		}
	}

	_, notice, err := a.decks.Create(ctx, f, a.progressPrinter)
	a.notify(notice)
	return err
}

func (a *App) ListDecks(ctx context.Context) error {
	decks, err := a.library.LoadDecks(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(decks) == 0 {
		fmt.Fprintln(a.out, "No decks yet.")
		return nil
	}
	for _, d := range decks {
		n := len(d.Flashcards)
		if n == 0 {
			n = len(d.FlashcardCids)
		}
		fmt.Fprintf(a.out, "%s  %s  %s (%d cards)\n", d.DeckCid, d.Timestamp.Format("2006-01-02 15:04"), d.Name, n)
		if d.Description != "" {
			fmt.Fprintf(a.out, "    %s\n", d.Description)
		}
	}
	return nil
}

func (a *App) EditDeck(ctx context.Context, cid string) error {
	deck, ok := a.library.Deck(cid)
	if !ok {
		fmt.Fprintln(a.out, "Unknown deck; run 'decks' first.")
		return nil
	}
	name, err := GetTextWithDefault(a.reader, "Deck name", deck.Name, a.out)
	if err != nil {
		return err
	}
	desc, err := GetTextWithDefault(a.reader, "Description", deck.Description, a.out)
	if err != nil {
		return err
	}

	updated, err := a.library.EditDeck(ctx, cid, name, desc)
	if err != nil {
		return a.fail(err)
	}
	a.notify(models.Notice{Severity: models.SeveritySuccess, Message: "Deck updated. New CID: " + updated.DeckCid})
	return nil
}

func (a *App) DeleteDeck(ctx context.Context, cid string) error {
	if !Confirm(a.reader, "Unpin deck "+cid+"?", a.out) {
		return nil
	}
	if err := a.library.DeleteDeck(ctx, cid); err != nil {
		return a.fail(err)
	}
	a.notify(models.Notice{Severity: models.SeveritySuccess, Message: "Deck removed."})
	return nil
}
