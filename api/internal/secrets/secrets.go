// Package secrets resolves credentials from the environment or a secret store.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNotFound = errors.New("secret not found")

// Provider looks up a single named secret.
type Provider interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// EnvProvider reads secrets from process environment variables.
type EnvProvider struct{}

func (EnvProvider) Lookup(_ context.Context, name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return v, nil
}

// Chain asks each provider in order and returns the first hit.
// A provider error other than ErrNotFound stops the chain.
type Chain []Provider

func (c Chain) Lookup(ctx context.Context, name string) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		v, err := p.Lookup(ctx, name)
		if err == nil && v != "" {
			return v, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("lookup %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Resolve looks up every name and fails listing all missing ones.
func Resolve(ctx context.Context, p Provider, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	var missing []string
	for _, n := range names {
		v, err := p.Lookup(ctx, n)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				missing = append(missing, n)
				continue
			}
			return nil, err
		}
		out[n] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required secrets %s: %w", strings.Join(missing, ", "), ErrNotFound)
	}
	return out, nil
}
