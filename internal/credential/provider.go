// Package credential abstracts bearer-token acquisition for backend calls.
package credential

import (
	"context"
	"fmt"
	"os"
)

// Provider yields a bearer credential. Tokens may expire upstream, so
// callers fetch a fresh token per attempt and never cache across attempts.
// An empty token with a nil error means no credential is available.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Static returns the same token on every call.
type Static struct {
	token string
}

// NewStatic wraps a fixed token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token returns the configured token.
func (s *Static) Token(context.Context) (string, error) {
	return s.token, nil
}

// Env reads the token from an environment variable on every call, so a
// rotated token is picked up without a restart.
type Env struct {
	name string
}

// NewEnv builds a provider over the named environment variable.
func NewEnv(name string) (*Env, error) {
	if name == "" {
		return nil, fmt.Errorf("credential env variable name is required")
	}
	return &Env{name: name}, nil
}

// Token reads the variable.
func (e *Env) Token(context.Context) (string, error) {
	return os.Getenv(e.name), nil
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context) (string, error)

// Token calls the wrapped function.
func (f Func) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
