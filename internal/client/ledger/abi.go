package ledger

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed FlashcardVault.abi.json
var vaultABIJSON string

// VaultABI is the parsed FlashcardVault interface. The embedded JSON is part
// of the build, so a parse failure is a programming error.
var VaultABI = mustParseABI(vaultABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("ledger: invalid embedded ABI: " + err.Error())
	}
	return parsed
}

const (
	methodAddFlashcard   = "addFlashcard"
	methodCreateDeck     = "createDeck"
	methodFlashcardsOf   = "getFlashcardsByOwner"
	methodDecksOf        = "getDecksByOwner"
	methodFlashcardCount = "getFlashcardCount"
	methodDeckCount      = "getDeckCount"
)
