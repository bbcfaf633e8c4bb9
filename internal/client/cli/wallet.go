package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/services"
)

func shortAddress(hex string) string {
	if len(hex) <= 10 {
		return hex
	}
	return hex[:6] + "…" + hex[len(hex)-4:]
}

// status is the prompt decoration: the short account or the session state.
func (a *App) status() string {
	s := a.wallet.Session()
	switch {
	case s.Loading:
		return "(loading)"
	case s.Connected:
		return "(" + shortAddress(s.Owner()) + ")"
	default:
		return "(disconnected)"
	}
}

func (a *App) notify(n models.Notice) {
	fmt.Fprintln(a.out, n.String())
}

func (a *App) fail(err error) error {
	a.notify(services.NoticeFor(err))
	return err
}

func (a *App) Connect(ctx context.Context) error {
	if a.isConnected() {
		fmt.Fprintln(a.out, "Already connected as", a.wallet.Session().Owner())
		return nil
	}
	if err := a.wallet.Connect(ctx); err != nil {
		return a.fail(err)
	}
	a.notify(models.Notice{Severity: models.SeveritySuccess, Message: "Connected as " + a.wallet.Session().Owner()})
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	a.wallet.Disconnect(ctx)
	fmt.Fprintln(a.out, "Disconnected.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	s := a.wallet.Session()
	if !s.Connected {
		fmt.Fprintln(a.out, "Wallet: disconnected")
		return nil
	}
	fmt.Fprintln(a.out, "Wallet:", s.Owner())
	if a.config != nil {
		fmt.Fprintln(a.out, "Contract:", a.config.ContractAddress)
		fmt.Fprintln(a.out, "Storage:", a.config.StorageBackend)
	}
	if err := s.Ledger.Available(ctx); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Contract: deployed")
	return nil
}
