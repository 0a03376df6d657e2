// Package secrets pulls deployment secrets (database password, Redis
// password, OTLP headers) from a Vault KV mount into the process
// environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/movequote/pkg/retry"
)

// VaultConfig describes where the secrets live.
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Attempts  int
	// Overwrite replaces variables already present in the environment.
	Overwrite bool
}

// Result reports which keys were exported.
type Result struct {
	Enabled bool
	Path    string
	Loaded  []string
	Skipped []string
}

// ErrIncompleteConfig is returned when Vault is enabled without an address,
// token or secret path.
var ErrIncompleteConfig = errors.New("vault enabled but VAULT_ADDR, VAULT_TOKEN or VAULT_PATH is missing")

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vault returned %d: %s", e.status, e.body)
}

// kvResponse covers both KV engine versions: v1 keeps the secret under
// data, v2 nests it one level deeper under data.data.
type kvResponse struct {
	Data json.RawMessage `json:"data"`
}

type kvV2Data struct {
	Data map[string]any `json:"data"`
}

// ConfigFromEnv reads VAULT_* variables.
func ConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     envOr("VAULT_MOUNT", "secret"),
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: envIntOr("VAULT_KV_VERSION", 2),
		Timeout:   time.Duration(envIntOr("VAULT_TIMEOUT_MS", 5000)) * time.Millisecond,
		Attempts:  envIntOr("VAULT_ATTEMPTS", 3),
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	return cfg
}

// Apply fetches the secret at cfg.Path and exports each key as an
// environment variable. Disabled configs are a no-op.
func Apply(ctx context.Context, cfg VaultConfig) (Result, error) {
	res := Result{Enabled: cfg.Enabled, Path: cfg.Path}
	if !cfg.Enabled {
		return res, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return res, ErrIncompleteConfig
	}

	data, err := fetch(ctx, cfg)
	if err != nil {
		return res, err
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped = append(res.Skipped, key)
			continue
		}
		if err := os.Setenv(key, stringify(data[key])); err != nil {
			return res, fmt.Errorf("failed to export %s: %w", key, err)
		}
		res.Loaded = append(res.Loaded, key)
	}
	return res, nil
}

func fetch(ctx context.Context, cfg VaultConfig) (map[string]any, error) {
	url := secretURL(cfg.Addr, cfg.Mount, cfg.Path, cfg.KVVersion)
	client := &http.Client{Timeout: cfg.Timeout}

	var body []byte
	policy := retry.ProviderCallConfig(cfg.Attempts, func(err error) bool {
		var se *statusError
		if errors.As(err, &se) {
			return se.status >= http.StatusInternalServerError
		}
		return true
	})
	err := retry.Do(ctx, policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-Vault-Token", cfg.Token)
		if cfg.Namespace != "" {
			req.Header.Set("X-Vault-Namespace", cfg.Namespace)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault fetch %s: %w", cfg.Path, err)
	}

	var envelope kvResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("vault response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, fmt.Errorf("vault response for %s has no data", cfg.Path)
	}

	if cfg.KVVersion == 1 {
		var data map[string]any
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("vault response: %w", err)
		}
		return data, nil
	}

	var v2 kvV2Data
	if err := json.Unmarshal(envelope.Data, &v2); err != nil {
		return nil, fmt.Errorf("vault response: %w", err)
	}
	if v2.Data == nil {
		return nil, fmt.Errorf("vault response for %s has no data", cfg.Path)
	}
	return v2.Data, nil
}

func secretURL(addr, mount, path string, kvVersion int) string {
	addr = strings.TrimRight(addr, "/")
	mount = strings.Trim(mount, "/")
	path = strings.TrimLeft(path, "/")
	if kvVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path)
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
