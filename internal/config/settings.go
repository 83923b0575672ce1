package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/entity"
)

// LoadClassifierSettings layers routing config: built-in defaults, then an
// optional YAML file, then CLASSIFIER_* environment variables. Missing keys
// at any layer keep the value from the layer below.
func LoadClassifierSettings(path string) (classifier.Config, error) {
	cfg := classifier.DefaultConfig()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, err
		}
	}

	if err := k.Load(env.Provider("CLASSIFIER_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CLASSIFIER_"))
	}), nil); err != nil {
		return cfg, err
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// WalletsFromEnv maps each accounting scope to its wallet identifier. A
// scope without a configured wallet stays absent from the map and commits
// against it fail with a missing-wallet error.
func WalletsFromEnv() map[entity.Scope]string {
	wallets := make(map[entity.Scope]string)

	if wallet := os.Getenv("WALLET_OPERATIONAL"); wallet != "" {
		wallets[entity.ScopeOperational] = wallet
	}
	if wallet := os.Getenv("WALLET_PROJECT"); wallet != "" {
		wallets[entity.ScopeProject] = wallet
	}

	return wallets
}
