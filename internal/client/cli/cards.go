package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
)

// progressPrinter renders flow transitions on one line each.
func (a *App) progressPrinter(p models.Progress) {
	if p.Detail != "" {
		fmt.Fprintf(a.out, "[%s %d%%] %s\n", p.Stage, p.Percent, p.Detail)
		return
	}
	fmt.Fprintf(a.out, "[%s %d%%]\n", p.Stage, p.Percent)
}

// AddCard asks for a question and an answer and runs the create flow. Input
// of a failed attempt is offered as the default next time.
func (a *App) AddCard(ctx context.Context) error {
	var err error
	if a.cardForm.Question, err = GetTextWithDefault(a.reader, "Question", a.cardForm.Question, a.out); err != nil {
		return err
	}
	if a.cardForm.Answer, err = GetTextWithDefault(a.reader, "Answer", a.cardForm.Answer, a.out); err != nil {
		return err
	}

	_, notice, err := a.cards.Create(ctx, &a.cardForm, a.progressPrinter)
	a.notify(notice)
	return err
}

func (a *App) ListCards(ctx context.Context) error {
	cards, err := a.library.LoadFlashcards(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(cards) == 0 {
		fmt.Fprintln(a.out, "No flashcards yet.")
		return nil
	}
	for _, c := range cards {
		fmt.Fprintf(a.out, "%s  %s  Q: %s\n", c.IpfsCid, c.Timestamp.Format("2006-01-02 15:04"), c.Question)
		fmt.Fprintf(a.out, "    A: %s\n", c.Answer)
	}
	return nil
}

func (a *App) EditCard(ctx context.Context, cid string) error {
	card, ok := a.library.Flashcard(cid)
	if !ok {
		fmt.Fprintln(a.out, "Unknown flashcard; run 'cards' first.")
		return nil
	}
	q, err := GetTextWithDefault(a.reader, "Question", card.Question, a.out)
	if err != nil {
		return err
	}
	ans, err := GetTextWithDefault(a.reader, "Answer", card.Answer, a.out)
	if err != nil {
		return err
	}

	updated, err := a.library.EditFlashcard(ctx, cid, q, ans)
	if err != nil {
		return a.fail(err)
	}
	a.notify(models.Notice{Severity: models.SeveritySuccess, Message: "Flashcard updated. New CID: " + updated.IpfsCid})
	return nil
}

func (a *App) DeleteCard(ctx context.Context, cid string) error {
	if !Confirm(a.reader, "Unpin flashcard "+cid+"?", a.out) {
		return nil
	}
	if err := a.library.DeleteFlashcard(ctx, cid); err != nil {
		return a.fail(err)
	}
	a.notify(models.Notice{Severity: models.SeveritySuccess, Message: "Flashcard removed."})
	return nil
}
