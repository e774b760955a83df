package auth

import (
	"context"
)

// DriveAuthenticator holds the client secret path and the handle from the
// last successful Authenticate call. It is not safe for concurrent use.
type DriveAuthenticator struct {
	credentialFilePath string
	authenticated      bool
	client             *Client
	provider           AuthorizationProvider
}

func NewDriveAuthenticator(credentialFilePath string, provider AuthorizationProvider) *DriveAuthenticator {
	return &DriveAuthenticator{
		credentialFilePath: credentialFilePath,
		provider:           provider,
	}
}

// Authenticate runs the full handshake through the provider and returns the
// resulting handle. A non-empty credentialFilePath replaces the stored one.
//
// Provider errors are returned as-is. On failure the previous handle and
// authenticated flag are left untouched.
func (d *DriveAuthenticator) Authenticate(ctx context.Context, credentialFilePath string) (*Client, error) {
	if credentialFilePath != "" {
		d.credentialFilePath = credentialFilePath
	}
	if d.credentialFilePath == "" {
		return nil, ErrInvalidConfiguration
	}

	client, err := d.provider.AuthorizeServer(ctx, Request{
		SecretsFile:    d.credentialFilePath,
		Scopes:         Scopes(),
		ServiceName:    ServiceName,
		Version:        APIVersion,
		CredentialsDir: CredentialsDir,
	})
	if err != nil {
		return nil, err
	}

	d.client = client
	d.authenticated = true
	return client, nil
}

func (d *DriveAuthenticator) CredentialFilePath() string {
	return d.credentialFilePath
}

func (d *DriveAuthenticator) IsAuthenticated() bool {
	return d.authenticated
}

// Client returns the handle from the last successful call, or nil.
func (d *DriveAuthenticator) Client() *Client {
	return d.client
}
