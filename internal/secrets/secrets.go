// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads solver licences and credentials from a directory of
// plain-text files. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
//
// Keys are exported to the solver process as environment variables, so
// file names follow the variable they set: ilog-license-file (CPLEX),
// grb-license-file (Gurobi), grb-wls-accessid, grb-wls-secret.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// EnvName maps a secret key to its environment variable name:
// "grb-license-file" becomes "GRB_LICENSE_FILE".
func EnvName(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

// Env converts loaded secrets to environment variables.
func Env(secrets map[string]string) map[string]string {
	env := make(map[string]string, len(secrets))
	for k, v := range secrets {
		env[EnvName(k)] = v
	}
	return env
}
