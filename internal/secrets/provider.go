package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto uses the vault in staging/production and the environment elsewhere
	SourceAuto SecretSource = "auto"
)

// Provider resolves secrets from the environment or from Azure Key Vault
type Provider struct {
	source      SecretSource
	vault       *VaultClient
	logger      *zap.Logger
	environment string
	lookupEnv   func(string) string
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string // "development", "staging", "production"
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns "auto" into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a secrets provider, connecting to Key Vault when needed
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var vault *VaultClient
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		var err error
		vault, err = NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return newProvider(source, vault, cfg.Environment, logger), nil
}

// NewProviderWithClient builds a vault-backed provider around an existing client
func NewProviderWithClient(vault *VaultClient, environment string, logger *zap.Logger) *Provider {
	return newProvider(SourceVault, vault, environment, logger)
}

func newProvider(source SecretSource, vault *VaultClient, environment string, logger *zap.Logger) *Provider {
	return &Provider{
		source:      source,
		vault:       vault,
		logger:      logger,
		environment: environment,
		lookupEnv:   os.Getenv,
	}
}

// EnvName maps a vault secret name to its environment variable form,
// e.g. "session-secret" becomes "SESSION_SECRET".
func EnvName(secretName string) string {
	return strings.ToUpper(strings.ReplaceAll(secretName, "-", "_"))
}

// GetSecret retrieves a secret by its vault name. In environment mode the
// variable named by EnvName is read instead.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		envName := EnvName(secretName)
		value := p.lookupEnv(envName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", envName)
		}
		return value, nil
	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, secretName)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv prefers an explicitly set environment variable over the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := p.lookupEnv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override", zap.String("envName", envName))
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
