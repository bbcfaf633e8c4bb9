// Package cli provides the interactive FlashVault terminal client.
//
// It wires configuration, the local SQLite store, the pinning backend and
// the wallet session, then runs a REPL over the create and library flows.
// A previous wallet session is restored silently on start and provider
// events (dropped keys, chain switches) are applied in the background.
//
// Commands:
//   - connect / disconnect / status
//   - addcard, adddeck
//   - cards, decks, study <cid>
//   - editcard <cid>, editdeck <cid>, delcard <cid>, deldeck <cid>
//   - pending, resume <cid>, stats
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
