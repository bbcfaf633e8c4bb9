package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isConnected() bool
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) error
	AddCard(ctx context.Context) error
	AddDeck(ctx context.Context) error
	ListCards(ctx context.Context) error
	ListDecks(ctx context.Context) error
	Study(ctx context.Context, cid string) error
	EditCard(ctx context.Context, cid string) error
	EditDeck(ctx context.Context, cid string) error
	DeleteCard(ctx context.Context, cid string) error
	DeleteDeck(ctx context.Context, cid string) error
	Pending(ctx context.Context) error
	Resume(ctx context.Context, cid string) error
	Stats(ctx context.Context) error
}

const (
	helpConnected    = "Available commands: addcard, adddeck, cards, decks, study <cid>, editcard <cid>, editdeck <cid>, delcard <cid>, deldeck <cid>, pending, resume <cid>, stats, status, disconnect, exit"
	helpDisconnected = "Available commands: connect, cards, decks, study <cid>, pending, status, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// Commands taking a CID print their usage when it is missing. Handler errors
// are reported by the handlers themselves; the loop keeps going. It returns
// on EOF or "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	withCID := map[string]func(context.Context, string) error{
		"study":    a.Study,
		"editcard": a.EditCard,
		"editdeck": a.EditDeck,
		"delcard":  a.DeleteCard,
		"deldeck":  a.DeleteDeck,
		"resume":   a.Resume,
	}

	for {
		printlnFn(fmt.Sprintf("fv %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if fn, ok := withCID[cmd]; ok {
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <cid>", cmd))
				continue
			}
			_ = fn(ctx, args[0])
			continue
		}

		switch cmd {
		case "help":
			if a.isConnected() {
				printlnFn(helpConnected)
			} else {
				printlnFn(helpDisconnected)
			}

		case "connect":
			_ = a.Connect(ctx)

		case "disconnect":
			_ = a.Disconnect(ctx)

		case "status":
			_ = a.Status(ctx)

		case "addcard":
			_ = a.AddCard(ctx)

		case "adddeck":
			_ = a.AddDeck(ctx)

		case "cards":
			_ = a.ListCards(ctx)

		case "decks":
			_ = a.ListDecks(ctx)

		case "pending":
			_ = a.Pending(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
