package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// SecretStore is the config table seen from the secret resolver.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string) error
}

// ResolveSecret fills cfg.JWTSecret from the config table when neither the
// environment nor the JSON file provided one. A fresh secret is generated
// and stored on first boot.
func ResolveSecret(ctx context.Context, cfg *Config, store SecretStore) error {
	if cfg.JWTSecret != "" {
		return nil
	}

	secret, err := store.Get(ctx, model.ConfigSecret)
	if err == nil && secret != "" {
		cfg.JWTSecret = secret
		return nil
	}
	if err != nil && !errors.Is(err, model.ErrConfigNotFound) {
		return fmt.Errorf("load secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	secret = hex.EncodeToString(buf)

	if err := store.Set(ctx, model.ConfigSecret, secret); err != nil {
		return fmt.Errorf("store secret: %w", err)
	}
	log.Info().Msg("[Config] Generated a new token signing secret")

	cfg.JWTSecret = secret
	return nil
}
