package control

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/config"
	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/routing"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage/memory"
	"github.com/bertankofon/intmax2-client-sdk/internal/resync"
)

const hardhatKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeAuth struct {
	mu       sync.Mutex
	view     domain.SessionView
	loginErr error
	logouts  int
}

func (f *fakeAuth) Login(context.Context) (*domain.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.view = domain.SessionView{Address: "T6ubiG", Authenticated: true, ViewKey: "view", SpendPublicKey: "spend-pub"}
	return &domain.LoginResult{Address: f.view.Address, IsLoggedIn: true}, nil
}

func (f *fakeAuth) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = domain.SessionView{}
	f.logouts++
}

func (f *fakeAuth) View() domain.SessionView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeAuth) MarkSynced(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.LastSyncedAt = at
}

func (f *fakeAuth) SpendKey() (string, error) {
	if !f.View().Authenticated {
		return "", domain.NotLoggedIn("spend key")
	}
	return "spend-key", nil
}

type fakeAccount struct {
	balances []domain.TokenBalance
	spendKey string
	pubKey   string
}

func (f *fakeAccount) GetBalancesWithoutSync(context.Context, string) ([]domain.TokenBalance, error) {
	return f.balances, nil
}

func (f *fakeAccount) SignMessage(_ context.Context, spendKey string, message []byte) ([]string, error) {
	f.spendKey = spendKey
	return []string{"0x01", string(message)}, nil
}

func (f *fakeAccount) VerifySignature(_ context.Context, signature []string, spendPub string, message []byte) (bool, error) {
	f.pubKey = spendPub
	return len(signature) == 2 && signature[1] == string(message), nil
}

type fakeSyncProver struct {
	syncs    atomic.Int32
	syncErr  error
	userData *domain.UserData
}

func (f *fakeSyncProver) Sync(context.Context, string) error {
	f.syncs.Add(1)
	return f.syncErr
}

func (f *fakeSyncProver) SyncWithdrawals(context.Context, string, uint32) error { return nil }

func (f *fakeSyncProver) GetUserData(context.Context, string) (*domain.UserData, error) {
	return f.userData, nil
}

func newTestClient(auth *fakeAuth, account *fakeAccount, p *fakeSyncProver) *Client {
	syncer := resync.NewSyncer(p, auth, memory.NewFetchCache(), resync.Config{
		Interval:  time.Hour,
		Freshness: time.Minute,
		Retry:     routing.RetryConfig{MaxAttempts: 1, Delay: time.Millisecond},
	})
	return newClient(config.Default(), auth, account, syncer)
}

func TestNewClientRejectsMainnet(t *testing.T) {
	app := config.Default()
	app.Environment = config.Mainnet
	app.Prover.URL = "http://127.0.0.1:9"

	_, err := NewClient(context.Background(), Config{App: app})
	if !errors.Is(err, domain.ErrMainnetUnsupported) {
		t.Fatalf("Expected ErrMainnetUnsupported, got %v", err)
	}
}

func TestNewClientRequiresProver(t *testing.T) {
	app := config.Default()
	app.Wallet.PrivateKey = hardhatKey
	if _, err := NewClient(context.Background(), Config{App: app}); err == nil {
		t.Fatal("expected an error without prover.url")
	}
}

func TestNewClientWiresMemoryStore(t *testing.T) {
	app := config.Default()
	app.Environment = config.Devnet
	app.Prover.URL = "http://127.0.0.1:9"
	app.Wallet.PrivateKey = hardhatKey

	c, err := NewClient(context.Background(), Config{App: app})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if c.IsLoggedIn() {
		t.Error("new client must start logged out")
	}
	if got := c.wallet.Address().Hex(); got != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Errorf("wallet address = %s", got)
	}
	report := c.Monitor().CheckHealth(context.Background())
	if len(report.Components) != 4 {
		t.Errorf("Expected 4 components, got %d", len(report.Components))
	}
	if _, err := c.FetchTokenBalances(context.Background()); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Errorf("Expected ErrNotLoggedIn, got %v", err)
	}
}

func TestFetchTokenBalancesFallsBackToUserData(t *testing.T) {
	auth := &fakeAuth{}
	p := &fakeSyncProver{userData: &domain.UserData{Balances: []domain.TokenBalance{{TokenIndex: 0, Amount: "42"}}}}
	c := newTestClient(auth, &fakeAccount{}, p)
	defer c.Close()

	if _, err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	got, err := c.FetchTokenBalances(context.Background())
	if err != nil {
		t.Fatalf("FetchTokenBalances: %v", err)
	}
	if len(got) != 1 || got[0].Amount != "42" {
		t.Errorf("balances = %+v", got)
	}
}

func TestFetchTokenBalancesPrefersUnsyncedRead(t *testing.T) {
	auth := &fakeAuth{}
	account := &fakeAccount{balances: []domain.TokenBalance{{TokenIndex: 1, Amount: "7"}}}
	p := &fakeSyncProver{userData: &domain.UserData{}}
	c := newTestClient(auth, account, p)
	defer c.Close()

	if _, err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	got, err := c.FetchTokenBalances(context.Background())
	if err != nil {
		t.Fatalf("FetchTokenBalances: %v", err)
	}
	if len(got) != 1 || got[0].TokenIndex != 1 {
		t.Errorf("balances = %+v", got)
	}
}

func TestLoginFailureLeavesSyncerStopped(t *testing.T) {
	auth := &fakeAuth{loginErr: domain.NewError(domain.ErrAuthentication, "login", "boom", nil)}
	p := &fakeSyncProver{}
	c := newTestClient(auth, &fakeAccount{}, p)
	defer c.Close()

	if _, err := c.Login(context.Background()); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("Expected ErrAuthentication, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if n := p.syncs.Load(); n != 0 {
		t.Errorf("Expected no sync after a failed login, got %d", n)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	auth := &fakeAuth{}
	c := newTestClient(auth, &fakeAccount{}, &fakeSyncProver{userData: &domain.UserData{}})
	defer c.Close()

	if _, err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !c.IsLoggedIn() {
		t.Fatal("expected a session after login")
	}
	c.Logout(context.Background())
	c.Logout(context.Background())

	if c.IsLoggedIn() {
		t.Error("session survived logout")
	}
	if auth.logouts != 2 {
		t.Errorf("Expected 2 vault logouts, got %d", auth.logouts)
	}
	if _, err := c.SignMessage(context.Background(), []byte("hi")); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Errorf("Expected ErrNotLoggedIn, got %v", err)
	}
}

func TestSignAndVerifyUseSpendKeys(t *testing.T) {
	auth := &fakeAuth{}
	account := &fakeAccount{}
	c := newTestClient(auth, account, &fakeSyncProver{userData: &domain.UserData{}})
	defer c.Close()

	if _, err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	sig, err := c.SignMessage(context.Background(), []byte("hello"))
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	if account.spendKey != "spend-key" {
		t.Errorf("signed with %q", account.spendKey)
	}
	ok, err := c.VerifySignature(context.Background(), sig, []byte("hello"))
	if err != nil || !ok {
		t.Errorf("VerifySignature = %v, %v", ok, err)
	}
	if account.pubKey != "spend-pub" {
		t.Errorf("verified against %q", account.pubKey)
	}
}

func TestCloseCancelsKickedResync(t *testing.T) {
	auth := &fakeAuth{}
	p := &fakeSyncProver{syncErr: errors.New("connection reset")}
	syncer := resync.NewSyncer(p, auth, memory.NewFetchCache(), resync.Config{
		Interval:  time.Hour,
		Freshness: time.Minute,
		Retry:     routing.RetryConfig{MaxAttempts: 5, Delay: 50 * time.Millisecond},
	})
	c := newClient(config.Default(), auth, &fakeAccount{}, syncer)

	if _, err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for p.syncs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	after := p.syncs.Load()
	if after < 1 || after >= 5 {
		t.Fatalf("Expected the kicked resync to stop early, syncs=%d", after)
	}
	time.Sleep(100 * time.Millisecond)
	if p.syncs.Load() != after {
		t.Error("resync ran after Close")
	}
}
