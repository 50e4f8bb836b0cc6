package providers

import (
	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/config"
)

// AuthKey wraps the access token key bytes.
type AuthKey []byte

// NonceKey wraps the anti-forgery key bytes.
type NonceKey []byte

// ProvideAuthKey loads or generates the access token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if len(cfg.Auth.AccessTokenKey) > 0 {
		return AuthKey(cfg.Auth.AccessTokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath, auth.AccessKeyFile)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideNonceKey loads or generates the anti-forgery key.
func ProvideNonceKey(i do.Injector) (NonceKey, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if len(cfg.Auth.NonceKey) > 0 {
		return NonceKey(cfg.Auth.NonceKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath, auth.NonceKeyFile)
	if err != nil {
		return nil, err
	}
	cfg.Auth.NonceKey = key
	return NonceKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}

// ProvidePasswordHasher provides the argon2id hasher at the configured cost.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return auth.NewPasswordHasher(auth.PasswordParams{
		Memory:     uint32(cfg.Auth.PasswordMemoryKB),  //nolint:gosec // bounded by config validation
		Iterations: uint32(cfg.Auth.PasswordIterations), //nolint:gosec // bounded by config validation
	}), nil
}

// ProvideNonceService provides the anti-forgery token service.
func ProvideNonceService(i do.Injector) (*auth.NonceService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	nonceKey := do.MustInvoke[NonceKey](i)

	return auth.NewNonceService([]byte(nonceKey), cfg.Auth.NonceTick)
}
