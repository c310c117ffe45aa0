// Package control wires every component into the client used by the CLI.
package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/bertankofon/intmax2-client-sdk/internal/auth"
	"github.com/bertankofon/intmax2-client-sdk/internal/builder"
	"github.com/bertankofon/intmax2-client-sdk/internal/core/config"
	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/deposit"
	"github.com/bertankofon/intmax2-client-sdk/internal/fee"
	"github.com/bertankofon/intmax2-client-sdk/internal/health"
	"github.com/bertankofon/intmax2-client-sdk/internal/history"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/chain/evm"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/indexer"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/predicate"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/prover"
	redisclient "github.com/bertankofon/intmax2-client-sdk/internal/infra/redis"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/routing"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage/memory"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage/postgres"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/vault"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/wallet"
	"github.com/bertankofon/intmax2-client-sdk/internal/resync"
	"github.com/bertankofon/intmax2-client-sdk/internal/txn"
	"github.com/bertankofon/intmax2-client-sdk/internal/withdrawal"
)

const serviceTimeout = 30 * time.Second

// Config holds the client configuration.
type Config struct {
	App *config.AppConfig
	// Wallet signs logins and chain transactions. When nil a local wallet
	// is built from App.Wallet.
	Wallet wallet.Wallet
}

// authSession is the part of auth.Manager the client calls directly.
type authSession interface {
	Login(ctx context.Context) (*domain.LoginResult, error)
	Logout(ctx context.Context)
	View() domain.SessionView
	MarkSynced(at time.Time)
	SpendKey() (string, error)
}

// accountProver is the part of the proving module the client calls directly.
type accountProver interface {
	GetBalancesWithoutSync(ctx context.Context, viewKey string) ([]domain.TokenBalance, error)
	SignMessage(ctx context.Context, spendKey string, message []byte) ([]string, error)
	VerifySignature(ctx context.Context, signature []string, spendPub string, message []byte) (bool, error)
}

// Client is the account-level entry point. One client serves one wallet.
type Client struct {
	cfg     *config.AppConfig
	urls    config.URLs
	wallet  wallet.Wallet
	auth    authSession
	account accountProver
	syncer  *resync.Syncer

	builders   *builder.Locator
	fees       *fee.Service
	txs        *txn.Pipeline
	deposits   *deposit.Service
	reconciler *withdrawal.Reconciler
	claimer    *withdrawal.Claimer
	history    *history.Fetcher
	monitor    *health.Monitor

	// broadcasts on one account must not interleave
	txMu sync.Mutex

	base    context.Context
	stop    context.CancelFunc
	db      *postgres.DB
	closers []io.Closer
	log     *slog.Logger
}

// NewClient builds every component for the configured environment.
// Remote services are not contacted until the first operation, except for
// the optional redis and postgres stores.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	app := cfg.App
	if app == nil {
		app = config.Default()
	}
	env, err := app.Environment.Validate()
	if err != nil {
		return nil, err
	}
	if env == config.Mainnet {
		return nil, domain.NewError(domain.ErrMainnetUnsupported, "new client", "", nil)
	}
	urls, err := app.URLs()
	if err != nil {
		return nil, err
	}
	if app.Prover.URL == "" {
		return nil, fmt.Errorf("prover.url is required")
	}

	w := cfg.Wallet
	if w == nil {
		w, err = wallet.NewLocalWallet(app.Wallet.PrivateKey, domain.ProviderType(app.Wallet.ProviderType))
		if err != nil {
			return nil, err
		}
	}

	store, err := openStore(ctx, app)
	if err != nil {
		return nil, err
	}

	vaultClient := vault.NewClient(urls.KeyVaultURL, serviceTimeout)
	indexerClient := indexer.NewClient(urls.IndexerURL, serviceTimeout)
	predicateClient := predicate.NewClient(urls.PredicateURL, serviceTimeout)
	proverClient := prover.NewClient(app.Prover.URL, app.Prover.Timeout)

	chain, ec, err := evm.Dial(ctx, urls.RPCURLL1, common.HexToAddress(urls.LiquidityContract))
	if err != nil {
		store.Close()
		return nil, err
	}
	receipts := evm.NewReceiptWatcher(ec, app.Tx.ReceiptPollInterval, app.Tx.ReceiptTimeout)

	manager := auth.NewManager(w, vaultClient, proverClient, env)
	syncer := resync.NewSyncer(proverClient, manager, store.cache, resync.Config{
		Interval:  app.Sync.Interval,
		Freshness: app.Sync.Freshness,
		Retry:     routing.RetryConfig{MaxAttempts: app.Sync.Attempts, Delay: app.Sync.Backoff},
		LockTTL:   resync.DefaultConfig.LockTTL,
	})
	if store.locker != nil {
		syncer.WithLocker(store.locker)
	}

	c := newClient(app, manager, proverClient, syncer)
	c.urls = urls
	c.wallet = w
	c.db = store.db

	c.builders = builder.NewLocator(indexerClient)
	c.fees = fee.NewService(proverClient, c.builders, manager)
	c.txs = txn.NewPipeline(proverClient, manager, c.fees, c.builders, txn.Config{
		SettleDelay: app.Tx.SettleDelay,
		ClaimDelay:  app.Tx.ClaimDelay,
		WithdrawalSync: routing.RetryConfig{
			MaxAttempts: app.Tx.WithdrawalSyncAttempts,
			Delay:       app.Tx.WithdrawalSyncBackoff,
		},
	})

	gate := deposit.NewComplianceGate(predicateClient, common.HexToAddress(urls.PredicateContract))
	c.deposits = deposit.NewService(chain, proverClient, gate, receipts, w)
	c.reconciler = withdrawal.NewReconciler(proverClient, chain, manager)
	c.claimer = withdrawal.NewClaimer(chain, receipts, w)
	c.history = history.NewFetcher(proverClient, manager)

	c.monitor = health.NewMonitor(manager, 2*app.Sync.Freshness,
		vaultClient.Provider(),
		indexerClient.Provider(),
		predicateClient.Provider(),
		proverClient.Provider(),
	)
	for name, check := range store.checks {
		c.monitor.AddCheck(name, check)
	}

	c.closers = append(store.closers,
		vaultClient.Provider(),
		indexerClient.Provider(),
		predicateClient.Provider(),
		proverClient.Provider(),
		ethCloser{ec},
	)

	c.log.Info("Client initialized",
		"environment", string(env),
		"wallet", w.Address().Hex(),
		"provider", string(w.ProviderType()),
		"store", store.kind,
	)
	return c, nil
}

func newClient(app *config.AppConfig, session authSession, account accountProver, syncer *resync.Syncer) *Client {
	base, stop := context.WithCancel(context.Background())
	return &Client{
		cfg:     app,
		auth:    session,
		account: account,
		syncer:  syncer,
		base:    base,
		stop:    stop,
		log:     slog.Default().With("component", "client"),
	}
}

type fetchStore struct {
	kind    string
	cache   storage.FetchCache
	locker  resync.Locker
	db      *postgres.DB
	checks  map[string]health.Check
	closers []io.Closer
}

// openStore picks the fetch-time store: postgres when database.url is set,
// redis when redis.url is set, memory otherwise. Redis also provides the
// cross-process resync lock.
func openStore(ctx context.Context, app *config.AppConfig) (*fetchStore, error) {
	store := &fetchStore{checks: make(map[string]health.Check)}

	if app.Redis.URL != "" {
		rc, err := redisclient.NewClient(app.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		store.kind, store.cache, store.locker = "redis", rc, rc
		store.checks["redis"] = rc.Ping
		store.closers = append(store.closers, rc)
	}

	if app.Database.URL != "" {
		db, err := postgres.NewDB(ctx, app.Database)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			store.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		repo := postgres.NewFetchRepo(db)
		store.kind, store.cache, store.db = "postgres", repo, db
		store.checks["database"] = db.Health
		store.closers = append(store.closers, repo)
	}

	if store.cache == nil {
		store.kind, store.cache = "memory", memory.NewFetchCache()
		store.closers = append(store.closers, store.cache)
	}
	slog.Info("Using fetch store", "store", store.kind)
	return store, nil
}

func (s *fetchStore) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

type ethCloser struct {
	ec *ethclient.Client
}

func (e ethCloser) Close() error {
	e.ec.Close()
	return nil
}

// Start launches the background tasks used by the daemon.
func (c *Client) Start(ctx context.Context) {
	if c.db != nil {
		c.db.StartMetricsCollector(ctx)
	}
}

// Monitor returns the health monitor of the client.
func (c *Client) Monitor() *health.Monitor {
	return c.monitor
}

// Close stops the resync task and releases every connection.
func (c *Client) Close() error {
	c.stop()
	c.syncer.Stop()

	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
