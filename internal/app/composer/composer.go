// Package composer turns user input into a music generation prompt.
package composer

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/metatune/internal/domain/prompt"
	"github.com/osa030/metatune/internal/infra/metatune"
)

// ErrEmptyInput is returned when the free-form input is empty.
var ErrEmptyInput = errors.New("prompt input is empty")

// DefaultFallback is substituted when the transformation yields no prompt.
const DefaultFallback = "conversion failed"

// Transformer converts free-form text into a music prompt.
type Transformer interface {
	TransformPrompt(ctx context.Context, input string) (string, error)
}

// Composer composes prompts from free-form text or structured fields.
type Composer struct {
	transformer Transformer
	fallback    string
}

// New creates a composer. An empty fallback uses DefaultFallback.
func New(transformer Transformer, fallback string) *Composer {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Composer{
		transformer: transformer,
		fallback:    fallback,
	}
}

// FromText transforms free-form input through the remote service.
// When the service answers without a usable prompt (non-2xx or missing
// field) the fallback string is returned. Transport errors are returned.
func (c *Composer) FromText(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyInput
	}

	transformed, err := c.transformer.TransformPrompt(ctx, input)
	if err != nil {
		var apiErr *metatune.APIError
		if !errors.As(err, &apiErr) {
			return "", errors.Wrap(err, "failed to transform prompt")
		}
		zlog.Warn().Msgf("prompt transformation rejected, using fallback: %v", err)
		return c.fallback, nil
	}
	if transformed == "" {
		zlog.Warn().Msg("prompt transformation returned no prompt, using fallback")
		return c.fallback, nil
	}

	zlog.Info().Msgf("transformed prompt: %s", transformed)
	return transformed, nil
}

// FromFields composes the prompt from structured fields without any
// network call.
func (c *Composer) FromFields(f prompt.Fields) (string, error) {
	return prompt.Compose(f)
}
