package provider

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// #endregion

// #region errors

// ErrProviderFailure means every configured provider failed for one request.
var ErrProviderFailure = errors.New("all inference providers failed")

// #endregion

// #region interface

// Provider is a text-generation backend.
type Provider interface {
	Name() string
	// Generate returns the model's text. structured asks for a JSON object response.
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// #endregion

// #region chain

// Chain tries providers in order; the first success wins.
type Chain struct {
	providers []Provider
	log       *logrus.Entry
}

// NewChain creates a chain over providers, skipping nil entries.
func NewChain(log *logrus.Entry, providers ...Provider) *Chain {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Chain{log: log.WithField("component", "provider")}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Len returns the number of configured providers.
func (c *Chain) Len() int {
	return len(c.providers)
}

// Generate returns the first successful provider's text. When all fail the
// error wraps ErrProviderFailure and joins each provider's error.
func (c *Chain) Generate(ctx context.Context, prompt string, structured bool) (string, error) {
	if len(c.providers) == 0 {
		return "", fmt.Errorf("%w: no providers configured", ErrProviderFailure)
	}

	var errs []error
	for i, p := range c.providers {
		text, err := p.Generate(ctx, prompt, structured)
		if err == nil && strings.TrimSpace(text) != "" {
			if i > 0 {
				c.log.WithField("provider", p.Name()).Info("served by fallback provider")
			}
			return text, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		c.log.WithError(err).WithField("provider", p.Name()).Warn("provider failed")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrProviderFailure, errors.Join(errs...))
}

// #endregion
