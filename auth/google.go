package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/driveactivity/v2"
	"google.golang.org/api/option"

	"driveauth/models"
	"driveauth/storage"
)

// GoogleOAuth is the default AuthorizationProvider. It reuses or refreshes a
// token cached under the request's credentials directory and falls back to
// an interactive loopback consent flow.
type GoogleOAuth struct {
	logger    *slog.Logger
	storeKind string
	storeRoot string
	openURL   func(string) error
	stderr    io.Writer
}

type Option func(*GoogleOAuth)

func WithLogger(logger *slog.Logger) Option {
	return func(g *GoogleOAuth) { g.logger = logger }
}

// WithTokenStore selects the token store kind (storage.KindFile or
// storage.KindSQLite).
func WithTokenStore(kind string) Option {
	return func(g *GoogleOAuth) { g.storeKind = kind }
}

// WithStoreRoot sets the directory a relative credentials directory is
// resolved against. Defaults to the working directory.
func WithStoreRoot(dir string) Option {
	return func(g *GoogleOAuth) { g.storeRoot = dir }
}

// WithBrowser replaces the function used to open the consent URL.
func WithBrowser(openURL func(string) error) Option {
	return func(g *GoogleOAuth) { g.openURL = openURL }
}

func NewGoogleOAuth(opts ...Option) *GoogleOAuth {
	g := &GoogleOAuth{
		logger:    slog.Default(),
		storeKind: storage.KindFile,
		openURL:   OpenBrowser,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleOAuth) AuthorizeServer(ctx context.Context, req Request) (*Client, error) {
	b, err := os.ReadFile(req.SecretsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceNotFound, req.SecretsFile, err)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: unable to read credentials: %w", err)
	}

	if req.ServiceName != ServiceName || req.Version != APIVersion {
		return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedService, req.ServiceName, req.Version)
	}

	config, err := google.ConfigFromJSON(b, req.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("auth: unable to parse credentials: %w", err)
	}

	tok, err := g.token(ctx, config, req)
	if err != nil {
		return nil, err
	}

	// The handle outlives this call; keep ctx values but drop its cancellation.
	longCtx := context.WithoutCancel(ctx)
	ts := &persistingSource{
		src:    config.TokenSource(longCtx, tok),
		last:   tok.AccessToken,
		save:   func(t *oauth2.Token) error { return g.saveToken(longCtx, req, t) },
		logger: g.logger,
	}
	httpClient := oauth2.NewClient(ctx, ts)

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("auth: unable to create drive client: %w", err)
	}

	activityService, err := driveactivity.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("auth: unable to create drive activity client: %w", err)
	}

	return &Client{
		Drive:       driveService,
		Activity:    activityService,
		HTTPClient:  httpClient,
		TokenSource: ts,
	}, nil
}

// token returns a usable token for req: the cached one, a refreshed one, or a
// freshly consented one. New tokens are persisted before returning.
func (g *GoogleOAuth) token(ctx context.Context, config *oauth2.Config, req Request) (*oauth2.Token, error) {
	cached, err := g.loadToken(ctx, req)
	if err != nil {
		return nil, err
	}

	switch {
	case cached == nil:
		g.logger.Info("no cached token, interactive consent required",
			slog.String("key", TokenKey(req)),
		)
	case !cached.Covers(req.Scopes):
		g.logger.Info("cached token lacks requested scopes, interactive consent required",
			slog.Any("granted", cached.Scopes),
		)
	case !cached.Usable():
		g.logger.Info("cached token expired without refresh token, interactive consent required",
			slog.Time("expiry", cached.Token.Expiry),
		)
	case cached.Token.Valid():
		g.logger.Info("using cached token", slog.Time("expiry", cached.Token.Expiry))
		return cached.Token, nil
	default:
		g.logger.Info("cached token expired, refreshing", slog.Time("expiry", cached.Token.Expiry))

		fresh, err := config.TokenSource(ctx, cached.Token).Token()
		if err == nil {
			if err := g.saveToken(ctx, req, fresh); err != nil {
				return nil, err
			}
			return fresh, nil
		}

		if !refreshRejected(err) {
			return nil, fmt.Errorf("auth: refreshing token: %w", err)
		}
		g.logger.Warn("token refresh rejected, interactive consent required",
			slog.String("error", err.Error()),
		)
	}

	tok, err := g.consent(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := g.saveToken(ctx, req, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// refreshRejected reports whether the token endpoint refused the refresh
// token itself. Outages and rate limiting are not rejections.
func refreshRejected(err error) bool {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		return false
	}
	if rErr.ErrorCode == "invalid_grant" {
		return true
	}
	if rErr.Response == nil {
		return false
	}
	status := rErr.Response.StatusCode
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

// consent sends the user through the browser with PKCE and a loopback
// redirect, then exchanges the returned code. Blocks until the redirect
// arrives or ctx is done.
func (g *GoogleOAuth) consent(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	g.logger.Info("starting interactive consent flow")

	lb, err := listenLoopback(ctx, g.logger)
	if err != nil {
		return nil, err
	}
	defer lb.close()

	cfg := *config
	cfg.RedirectURL = lb.redirectURL()
	verifier := oauth2.GenerateVerifier()

	g.launchBrowser(cfg.AuthCodeURL(lb.state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	))

	code, err := lb.wait(ctx)
	if err != nil {
		return nil, err
	}

	g.logger.Info("received authorization code, exchanging for token")

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("auth: unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// TokenKey is the store key for the request's service and version.
func TokenKey(req Request) string {
	return req.ServiceName + "_" + req.Version
}

// StoreDir resolves the request's credentials directory against root.
func StoreDir(root, credentialsDir string) string {
	if filepath.IsAbs(credentialsDir) || root == "" {
		return credentialsDir
	}
	return filepath.Join(root, credentialsDir)
}

func (g *GoogleOAuth) withStore(req Request, fn func(storage.TokenStore) error) error {
	store, err := storage.Open(g.storeKind, StoreDir(g.storeRoot, req.CredentialsDir))
	if err != nil {
		return fmt.Errorf("auth: opening token store: %w", err)
	}
	defer store.Close()

	return fn(store)
}

func (g *GoogleOAuth) loadToken(ctx context.Context, req Request) (*models.CachedToken, error) {
	var cached *models.CachedToken
	err := g.withStore(req, func(store storage.TokenStore) error {
		var err error
		cached, err = store.Load(ctx, TokenKey(req))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("auth: loading cached token: %w", err)
	}
	return cached, nil
}

func (g *GoogleOAuth) saveToken(ctx context.Context, req Request, tok *oauth2.Token) error {
	record := &models.CachedToken{
		Key:       TokenKey(req),
		Token:     tok,
		Scopes:    grantedScopes(tok, req.Scopes),
		UpdatedAt: time.Now().UTC(),
	}

	err := g.withStore(req, func(store storage.TokenStore) error {
		return store.Save(ctx, record)
	})
	if err != nil {
		return fmt.Errorf("auth: saving token: %w", err)
	}

	g.logger.Info("saved token",
		slog.String("key", record.Key),
		slog.String("store", g.storeKind),
		slog.Time("expiry", tok.Expiry),
	)
	return nil
}

// grantedScopes prefers the scope list reported by the token endpoint, since
// the user may grant fewer scopes than requested.
func grantedScopes(tok *oauth2.Token, requested []string) []string {
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		return strings.Fields(s)
	}
	return requested
}
