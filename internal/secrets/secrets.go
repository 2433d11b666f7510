// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads intellidrug credentials from a directory holding one
// file per credential. Credentials never go in intellidrug.yaml.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is where the CLI looks for credential files.
const DefaultDir = ".secrets"

// Recognized key files.
const (
	// APIToken is the bearer token required by the HTTP API and sent to
	// remote workers.
	APIToken = "api-token"

	// DatabaseDSN overrides store.dsn, typically for a postgres archive.
	DatabaseDSN = "database-dsn"

	// ResponderAPIKey authenticates conversation follow-up requests.
	ResponderAPIKey = "responder-api-key"
)

// Secrets maps a credential file name to its trimmed contents.
type Secrets map[string]string

// Or returns value when it is set and the secret stored under key otherwise.
func (s Secrets) Or(key, value string) string {
	if value != "" {
		return value
	}
	return s[key]
}

// Keys returns the loaded credential names, sorted. Values are never logged.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields no secrets; blank and unreadable files are skipped.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Secrets{}, nil
	case err != nil:
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Secrets, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if value, ok := readSecret(filepath.Join(dir, entry.Name())); ok {
			out[entry.Name()] = value
		}
	}
	return out, nil
}

func readSecret(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("skipping unreadable secret", "file", filepath.Base(path), "err", err)
		return "", false
	}
	value := strings.TrimSpace(string(data))
	return value, value != ""
}
