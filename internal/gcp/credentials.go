// Package gcp holds the Google Cloud service-account credentials shared by
// the Vision, Document AI, Drive and Sheets clients.
package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ErrMissingCredentials is returned when neither inline JSON nor a
// credentials file is configured.
var ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS")

// Credentials points at a service-account key, inline or on disk.
// JSON wins when both are set.
type Credentials struct {
	JSON string
	File string
}

// IsSet reports whether any credential source is configured.
func (c Credentials) IsSet() bool {
	return c.JSON != "" || c.File != ""
}

// Bytes returns the raw service-account JSON.
func (c Credentials) Bytes() ([]byte, error) {
	const op = "Credentials.Bytes"

	switch {
	case c.JSON != "":
		return []byte(c.JSON), nil
	case c.File != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
		return data, nil
	default:
		return nil, ErrMissingCredentials
	}
}

// ClientOptions returns the client options for gRPC-based Cloud clients.
// With no credentials configured it returns nil so the client falls back to
// Application Default Credentials.
func (c Credentials) ClientOptions() []option.ClientOption {
	switch {
	case c.JSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(c.JSON))}
	case c.File != "":
		return []option.ClientOption{option.WithCredentialsFile(c.File)}
	default:
		return nil
	}
}

// HTTPClientOption builds an authorized HTTP client option for the REST
// APIs (Drive, Sheets) restricted to scopes.
func (c Credentials) HTTPClientOption(ctx context.Context, scopes ...string) (option.ClientOption, error) {
	const op = "Credentials.HTTPClientOption"

	data, err := c.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	return option.WithHTTPClient(config.Client(ctx)), nil
}
