// Package auth stores and resolves API credentials. Values are sealed with
// AES-GCM before they touch the database; the environment always wins over
// stored values so deployments can override without a setup run.
package auth

import (
	"context"

	"github.com/adamSellers/oakley-bookings/internal/crypto"
	"github.com/adamSellers/oakley-bookings/internal/internaltypes"
	"github.com/adamSellers/oakley-bookings/internal/resy"
)

const (
	credGoogleKey     = "google_api_key"
	credResyAPIKey    = "resy_api_key"
	credResyAuthToken = "resy_auth_token"
)

// CredentialStore is the slice of the persistence layer auth needs.
type CredentialStore interface {
	SaveCredential(ctx context.Context, name, valueEnc string) error
	GetCredential(ctx context.Context, name string) (string, error)
}

type Resolver struct {
	store CredentialStore
	aead  *crypto.AEAD

	envGoogleKey string
	envResyKey   string
	envResyToken string
}

func NewResolver(store CredentialStore, secretKey []byte, envGoogleKey, envResyKey, envResyToken string) (*Resolver, error) {
	r := &Resolver{
		store:        store,
		envGoogleKey: envGoogleKey,
		envResyKey:   envResyKey,
		envResyToken: envResyToken,
	}
	if len(secretKey) > 0 {
		aead, err := crypto.New(secretKey)
		if err != nil {
			return nil, err
		}
		r.aead = aead
	}
	return r, nil
}

func (r *Resolver) SaveGoogleKey(ctx context.Context, key string) error {
	return r.save(ctx, credGoogleKey, key)
}

func (r *Resolver) SaveResyCredentials(ctx context.Context, apiKey, authToken string) error {
	if err := r.save(ctx, credResyAPIKey, apiKey); err != nil {
		return err
	}
	return r.save(ctx, credResyAuthToken, authToken)
}

func (r *Resolver) GoogleKey(ctx context.Context) (string, error) {
	if r.envGoogleKey != "" {
		return r.envGoogleKey, nil
	}
	return r.load(ctx, credGoogleKey)
}

func (r *Resolver) ResyCredentials(ctx context.Context) (resy.Credentials, error) {
	if r.envResyKey != "" && r.envResyToken != "" {
		return resy.Credentials{APIKey: r.envResyKey, AuthToken: r.envResyToken}, nil
	}
	key, err := r.load(ctx, credResyAPIKey)
	if err != nil {
		return resy.Credentials{}, err
	}
	token, err := r.load(ctx, credResyAuthToken)
	if err != nil {
		return resy.Credentials{}, err
	}
	return resy.Credentials{APIKey: key, AuthToken: token}, nil
}

func (r *Resolver) save(ctx context.Context, name, value string) error {
	if r.aead == nil {
		return internaltypes.ConfigError("OAKLEY_SECRET_KEY required to store credentials")
	}
	enc, err := r.aead.EncryptToString(value)
	if err != nil {
		return err
	}
	return r.store.SaveCredential(ctx, name, enc)
}

func (r *Resolver) load(ctx context.Context, name string) (string, error) {
	enc, err := r.store.GetCredential(ctx, name)
	if err != nil || enc == "" {
		return "", err
	}
	if r.aead == nil {
		return "", internaltypes.ConfigError("OAKLEY_SECRET_KEY required to read stored credentials")
	}
	return r.aead.DecryptString(enc)
}
