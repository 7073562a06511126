package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const bearerPrefix = "Bearer "

// ErrInvalidToken is returned by NormalizeToken for values that are neither a
// bearer header nor a bare JWT.
var ErrInvalidToken = errors.New("invalid harmonic token")

// NormalizeToken turns a token pasted from the Harmonic console into the
// Authorization header value stored in HARMONIC_API_TOKEN.
//
// Surrounding whitespace and a single pair of matching quotes are removed, a
// bare JWT (starting with "eyJ") gets the "Bearer " prefix, and the JWT part
// must consist of exactly three dot-separated segments.
func NormalizeToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if (first == '"' || first == '\'') && first == last {
			token = token[1 : len(token)-1]
		}
	}

	if !strings.HasPrefix(token, bearerPrefix) {
		if !strings.HasPrefix(token, "eyJ") {
			return "", errors.Join(ErrInvalidToken, errors.New("token must start with 'Bearer ' or be a JWT"))
		}
		token = bearerPrefix + token
	}

	parts := strings.Split(token[len(bearerPrefix):], ".")
	if len(parts) != 3 {
		return "", errors.Join(ErrInvalidToken, errors.New("expected 3 JWT segments separated by dots"))
	}
	for _, p := range parts {
		if p == "" {
			return "", errors.Join(ErrInvalidToken, errors.New("empty JWT segment"))
		}
	}

	return token, nil
}

// SaveToken normalizes raw and stores it as HARMONIC_API_TOKEN in the .env
// file at path, keeping any other variables already there. It returns the
// stored value.
func SaveToken(path, raw string) (string, error) {
	token, err := NormalizeToken(raw)
	if err != nil {
		return "", err
	}

	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		if env, err = godotenv.Read(path); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	env[EnvAPIToken] = token
	if err := godotenv.Write(env, path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return token, nil
}
