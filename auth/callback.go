package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const shutdownTimeout = 5 * time.Second

const consentDonePage = `<html><body><h1>Drive access granted</h1>` +
	`<p>You can close this tab and return to the terminal.</p></body></html>`

// loopback receives the OAuth redirect on 127.0.0.1. The first request to
// "/" settles it; later requests are answered but ignored.
type loopback struct {
	state  string
	port   int
	srv    *http.Server
	logger *slog.Logger

	once sync.Once
	done chan struct{}
	code string
	err  error
}

func listenLoopback(ctx context.Context, logger *slog.Logger) (*loopback, error) {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("auth: binding loopback listener: %w", err)
	}

	lb := &loopback{
		state:  rand.Text(),
		port:   listener.Addr().(*net.TCPAddr).Port,
		logger: logger,
		done:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", lb.handle)
	lb.srv = &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	go func() {
		if err := lb.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lb.settle("", fmt.Errorf("auth: loopback server: %w", err))
		}
	}()

	logger.Debug("loopback listening", slog.Int("port", lb.port))
	return lb, nil
}

func (lb *loopback) redirectURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", lb.port)
}

func (lb *loopback) settle(code string, err error) {
	lb.once.Do(func() {
		lb.code, lb.err = code, err
		close(lb.done)
	})
}

func (lb *loopback) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var err error
	switch {
	case q.Get("state") != lb.state:
		err = errors.New("auth: oauth2 state mismatch")
	case q.Get("error") != "":
		err = fmt.Errorf("auth: authorization failed: %s: %s", q.Get("error"), q.Get("error_description"))
	case q.Get("code") == "":
		err = errors.New("auth: callback missing authorization code")
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		lb.settle("", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, consentDonePage)
	lb.settle(q.Get("code"), nil)
}

func (lb *loopback) wait(ctx context.Context) (string, error) {
	select {
	case <-lb.done:
		return lb.code, lb.err
	case <-ctx.Done():
		return "", fmt.Errorf("auth: interactive consent canceled: %w", ctx.Err())
	}
}

func (lb *loopback) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := lb.srv.Shutdown(ctx); err != nil {
		lb.logger.Warn("loopback shutdown error", slog.String("error", err.Error()))
	}
}
