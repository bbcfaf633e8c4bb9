package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
)

// Pending lists uploads whose ledger registration never completed.
func (a *App) Pending(ctx context.Context) error {
	items, err := a.library.Pending(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Nothing pending.")
		return nil
	}
	for _, p := range items {
		fmt.Fprintf(a.out, "%s  %-9s  %s  %s\n", p.CID, p.Kind, p.CreatedAt.Format("2006-01-02 15:04"), p.Name)
	}
	fmt.Fprintln(a.out, "Use 'resume <cid>' to register one on the ledger.")
	return nil
}

func (a *App) Resume(ctx context.Context, cid string) error {
	if err := a.library.Resume(ctx, cid); err != nil {
		return a.fail(err)
	}
	a.notify(models.Notice{Severity: models.SeveritySuccess, Message: "Registered " + cid + " on the ledger."})
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	st, err := a.library.Stats(ctx)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Flashcards on chain: %d\nDecks on chain: %d\n", st.Flashcards, st.Decks)
	return nil
}
