// Package vault is the client of the authentication service.
package vault

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/provider"
)

type ChallengeResponse struct {
	Message string `json:"message"`
	Nonce   string `json:"nonce,omitempty"`
}

// HashedNetworkMessage is what the service recorded at the first login.
// Both fields are nil for an account that never logged in.
type HashedNetworkMessage struct {
	HashedNetworkMessage *string `json:"hashedNetworkMessage"`
	WalletProviderType   *string `json:"walletProviderType"`
}

type LoginRequest struct {
	Address            string `json:"address"`
	ChallengeSignature string `json:"challengeSignature"`
	SecuritySeed       string `json:"securitySeed"`
	WalletProviderType string `json:"walletProviderType"`
}

type LoginResponse struct {
	HashedSignature  string `json:"hashedSignature"`
	EncryptedEntropy string `json:"encryptedEntropy"`
	Nonce            int64  `json:"nonce"`
	AccessToken      string `json:"accessToken,omitempty"`
}

type MetaResponse struct {
	Meta struct {
		IsLegacy bool `json:"isLegacy"`
	} `json:"meta"`
}

// Client talks to the key vault.
type Client struct {
	http provider.RESTProvider

	mu    sync.RWMutex
	token string
}

// NewClient creates a vault client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithProvider(provider.NewHTTPProvider("vault", baseURL, timeout))
}

// NewClientWithProvider wraps an existing transport.
func NewClientWithProvider(p provider.RESTProvider) *Client {
	return &Client{http: p}
}

// Provider returns the underlying transport.
func (c *Client) Provider() provider.Provider {
	return c.http
}

func (c *Client) headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

// Challenge requests a challenge for address with the given intent.
func (c *Client) Challenge(ctx context.Context, address, intent string) (*ChallengeResponse, error) {
	var out ChallengeResponse
	err := c.http.Do(ctx, provider.Operation{
		Name: "challenge",
		Path: "/challenge",
		Body: map[string]string{"address": address, "type": intent},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("request challenge: %w", err)
	}
	if out.Message == "" {
		return nil, fmt.Errorf("request challenge: empty challenge message")
	}
	return &out, nil
}

// HashedNetworkMessage fetches the stored network signature hash and provider.
func (c *Client) HashedNetworkMessage(ctx context.Context, address, challengeSignature string) (*HashedNetworkMessage, error) {
	var out HashedNetworkMessage
	err := c.http.Do(ctx, provider.Operation{
		Name: "hashed-network-message",
		Path: "/wallet/hashed-network-message",
		Body: map[string]string{"address": address, "challengeSignature": challengeSignature},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch hashed network message: %w", err)
	}
	return &out, nil
}

// Login exchanges the challenge signature for a session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	err := c.http.Do(ctx, provider.Operation{
		Name: "login",
		Path: "/wallet/login",
		Body: req,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if out.HashedSignature == "" {
		return nil, fmt.Errorf("login: empty hashed signature")
	}

	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	return &out, nil
}

// Meta fetches wallet metadata.
func (c *Client) Meta(ctx context.Context, address string) (*MetaResponse, error) {
	var out MetaResponse
	err := c.http.Do(ctx, provider.Operation{
		Name:    "meta",
		Method:  "GET",
		Path:    "/wallet/meta/" + url.PathEscape(address),
		Headers: c.headers(),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("fetch wallet meta: %w", err)
	}
	return &out, nil
}

// Logout ends the server session and forgets the access token.
func (c *Client) Logout(ctx context.Context) error {
	headers := c.headers()
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	err := c.http.Do(ctx, provider.Operation{
		Name:    "logout",
		Path:    "/wallet/logout",
		Headers: headers,
		Body:    struct{}{},
	}, nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
