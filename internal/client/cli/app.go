package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/flashvault/internal/client/config"
	"github.com/dmitrijs2005/flashvault/internal/client/localdb"
	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/client/pinning"
	"github.com/dmitrijs2005/flashvault/internal/client/services"
	"github.com/dmitrijs2005/flashvault/internal/client/wallet"
	"github.com/dmitrijs2005/flashvault/internal/filex"
	"github.com/dmitrijs2005/flashvault/internal/logging"
)

// walletSession is the part of *wallet.Manager the REPL drives.
type walletSession interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	Init(ctx context.Context)
	Watch(ctx context.Context)
	Session() wallet.Session
}

type flashcardCreator interface {
	Create(ctx context.Context, form *models.FlashcardForm, observe services.Observer) (models.Flashcard, models.Notice, error)
}

type deckCreator interface {
	Create(ctx context.Context, form *models.DeckForm, observe services.Observer) (models.Deck, models.Notice, error)
}

type library interface {
	LoadFlashcards(ctx context.Context) ([]models.Flashcard, error)
	LoadDecks(ctx context.Context) ([]models.Deck, error)
	Flashcards() []models.Flashcard
	Flashcard(cid string) (models.Flashcard, bool)
	Deck(cid string) (models.Deck, bool)
	Study(ctx context.Context, cid string) (*models.StudySession, error)
	EditFlashcard(ctx context.Context, cid, question, answer string) (models.Flashcard, error)
	EditDeck(ctx context.Context, cid, name, description string) (models.Deck, error)
	DeleteFlashcard(ctx context.Context, cid string) error
	DeleteDeck(ctx context.Context, cid string) error
	Stats(ctx context.Context) (services.Stats, error)
	Pending(ctx context.Context) ([]*models.Publication, error)
	Resume(ctx context.Context, cid string) error
}

type App struct {
	config  *config.Config
	log     logging.Logger
	wallet  walletSession
	cards   flashcardCreator
	decks   deckCreator
	library library
	reader  *bufio.Reader
	out     io.Writer

	// Form input survives a failed attempt and is offered again.
	cardForm models.FlashcardForm
	deckForm models.DeckForm

	closers []func()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.ResolvePaths(); err != nil {
		return nil, err
	}

	log, err := logging.New(c.LogBackend, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	repos, err := localdb.Open(ctx, dataDir)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store, err := newStore(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	provider := wallet.NewKeystoreProvider(wallet.KeystoreConfig{
		Dir:          c.KeystoreDir,
		Account:      c.Account,
		PasswordFile: c.PasswordFile,
		RPCURL:       c.RPCURL,
		ChainPoll:    c.ChainCheckInterval,
		Prompt:       wallet.ReaderPrompt(reader, os.Stderr, int(os.Stdin.Fd())),
	}, log.With("component", "wallet"))
	manager := wallet.NewManager(provider, repos.Metadata, c.ContractAddress, log.With("component", "wallet"))

	lib := services.NewLibraryService(store, manager, repos.Publications, log.With("component", "library"))

	return &App{
		config:  c,
		log:     log,
		wallet:  manager,
		cards:   services.NewFlashcardService(store, manager, repos.Publications, log),
		decks:   services.NewDeckService(store, manager, lib, repos.Publications, log),
		library: lib,
		reader:  reader,
		out:     os.Stdout,
		closers: []func(){
			provider.Close,
			func() { _ = repos.Close() },
			func() { syncLogger(log) },
		},
	}, nil
}

// newStore builds the configured content publisher.
func newStore(ctx context.Context, c *config.Config) (pinning.Store, error) {
	gateway := pinning.NewGateway(c.GatewayURL, c.FetchTimeout, &http.Client{})

	switch c.StorageBackend {
	case config.StorageS3:
		api, err := pinning.NewS3Client(ctx, pinning.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return pinning.NewS3Store(api, c.S3Bucket, gateway), nil
	default:
		return pinning.NewPinataClient(pinning.PinataConfig{
			APIURL:    c.PinataAPIURL,
			JWT:       c.PinataJWT,
			PageLimit: c.PinPageLimit,
		}, gateway), nil
	}
}

func syncLogger(l logging.Logger) {
	if z, ok := l.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}

func (a *App) Close() {
	for _, fn := range a.closers {
		fn()
	}
}

func (a *App) isConnected() bool {
	return a.wallet.Session().Connected
}

// Run restores the wallet session, starts the event watcher and blocks in
// the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to FlashVault (type 'help' for commands)")
	a.wallet.Init(ctx)
	go a.wallet.Watch(ctx)

	runREPL(ctx, a, a.status, a.reader)
}
