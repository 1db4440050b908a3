package gcp

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveCredentials carries the OAuth client and the long-lived tokens used to
// act on the back-office Drive account.
type DriveCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccessToken  string
	RefreshToken string
}

// NewDriveService builds a Drive API service backed by a self-refreshing
// OAuth token source.
func NewDriveService(ctx context.Context, creds DriveCredentials) (*drive.Service, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("NewDriveService: OAuth client id and secret must be set")
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("NewDriveService: refresh token must be set")
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       []string{drive.DriveScope},
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("drive.NewService: %w", err)
	}
	return svc, nil
}
