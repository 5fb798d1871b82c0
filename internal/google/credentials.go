package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Config selects the credentials used for the Google APIs.
type Config struct {
	// CredentialsFile is the path of a service account key. When empty,
	// CredentialsJSON is used, then Application Default Credentials.
	CredentialsFile string

	// CredentialsJSON is the raw service account key.
	CredentialsJSON []byte

	// Subject is the user to impersonate through domain-wide delegation.
	// Service accounts can only invite attendees when it is set.
	Subject string

	// Scopes defaults to DefaultScopes.
	Scopes []string
}

// Credentials are resolved Google credentials ready to build API clients.
type Credentials struct {
	creds *google.Credentials

	// ClientEmail is the service account address, empty for other
	// credential types.
	ClientEmail string
}

// ErrNoCredentials is returned when no credentials were configured and
// Application Default Credentials are not available.
var ErrNoCredentials = errors.New("no Google credentials configured")

// LoadCredentials resolves cfg into credentials.
func LoadCredentials(ctx context.Context, cfg Config) (*Credentials, error) {
	params := google.CredentialsParams{
		Scopes:  cfg.Scopes,
		Subject: cfg.Subject,
	}
	if len(params.Scopes) == 0 {
		params.Scopes = DefaultScopes
	}

	data := cfg.CredentialsJSON
	if cfg.CredentialsFile != "" {
		var err error
		data, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	if len(data) == 0 {
		creds, err := google.FindDefaultCredentialsWithParams(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		return &Credentials{creds: creds}, nil
	}

	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if key.Type != "service_account" {
		return nil, fmt.Errorf("unsupported credentials type %q, expected service_account", key.Type)
	}

	creds, err := google.CredentialsFromJSONWithParams(ctx, data, params)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return &Credentials{creds: creds, ClientEmail: key.ClientEmail}, nil
}

// TokenSource returns the underlying token source.
func (c *Credentials) TokenSource() oauth2.TokenSource {
	return c.creds.TokenSource
}

// HTTPClient returns an authenticated HTTP client.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
func (c *Credentials) HTTPClient(ctx context.Context) *http.Client {
	client := oauth2.NewClient(ctx, c.creds.TokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client
}

// ClientOptions returns the options for google.golang.org/api service
// constructors.
func (c *Credentials) ClientOptions(ctx context.Context) []option.ClientOption {
	return []option.ClientOption{option.WithHTTPClient(c.HTTPClient(ctx))}
}

// String describes the credentials without secrets.
func (c *Credentials) String() string {
	if c.ClientEmail == "" {
		return "application-default"
	}
	return "service-account:" + strings.ToLower(c.ClientEmail)
}
