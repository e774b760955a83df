package auth

import (
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
)

// persistingSource saves every token the wrapped source hands out that
// differs from the last one seen, so silent refreshes survive restarts.
type persistingSource struct {
	src    oauth2.TokenSource
	save   func(*oauth2.Token) error
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		p.logger.Warn("token acquisition failed", slog.String("error", err.Error()))
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken == p.last {
		return tok, nil
	}
	p.last = tok.AccessToken

	if err := p.save(tok); err != nil {
		// The token is still good for this process.
		p.logger.Warn("failed to persist refreshed token", slog.String("error", err.Error()))
	}

	return tok, nil
}
