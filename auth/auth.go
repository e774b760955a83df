package auth

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/driveactivity/v2"
)

const (
	// ServiceName and APIVersion identify the Drive API the handle talks to.
	ServiceName = "drive"
	APIVersion  = "v3"

	// CredentialsDir is where the provider caches tokens between runs.
	CredentialsDir = ".drive_credentials"
)

var (
	ErrInvalidConfiguration = errors.New("auth: client secret file must be provided")
	ErrResourceNotFound     = errors.New("auth: client secret file not found")
	ErrUnsupportedService   = errors.New("auth: unsupported api service")
)

// Scopes returns the authorization scopes requested on every call, in order:
// metadata, full drive, per-file, activity.
func Scopes() []string {
	return []string{
		drive.DriveMetadataScope,
		drive.DriveScope,
		drive.DriveFileScope,
		driveactivity.DriveActivityScope,
	}
}

// Request describes one authorization handshake.
type Request struct {
	SecretsFile    string
	Scopes         []string
	ServiceName    string
	Version        string
	CredentialsDir string
}

// Client is the authenticated handle produced by an AuthorizationProvider.
type Client struct {
	Drive       *drive.Service
	Activity    *driveactivity.Service
	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
}

// AuthorizationProvider performs the OAuth handshake for a request: cached
// token, refresh, or interactive consent.
type AuthorizationProvider interface {
	AuthorizeServer(ctx context.Context, req Request) (*Client, error)
}
