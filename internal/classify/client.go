// Package classify turns free-text complaints into a structured
// domain.Classification by asking a hosted generative model.
//
// The model is the least reliable step of a submission, so Client.Analyze
// never fails: every provider, timeout, or output problem is mapped to one of
// a fixed set of reasons and the caller receives domain.FallbackClassification.
// Panics are not recovered; they indicate bugs rather than model trouble.
package classify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// Generator sends a prompt to a language model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reason labels why a classification ended up as the fallback record.
type Reason string

const (
	ReasonOK        Reason = "ok"
	ReasonProvider  Reason = "provider"
	ReasonTimeout   Reason = "timeout"
	ReasonCanceled  Reason = "canceled"
	ReasonEmpty     Reason = "empty"
	ReasonMalformed Reason = "malformed"
	ReasonInvalid   Reason = "invalid"
)

// Client classifies complaint text through a Generator.
type Client struct {
	Gen Generator

	// Timeout bounds a single model call. Zero leaves the call bounded only
	// by the caller's context.
	Timeout time.Duration
}

// New returns a Client bound to gen.
func New(gen Generator, timeout time.Duration) *Client {
	return &Client{Gen: gen, Timeout: timeout}
}

// Analyze classifies text. The result always has every field populated:
// either a validated model answer or domain.FallbackClassification.
func (c *Client) Analyze(ctx context.Context, text string) domain.Classification {
	ctx, span := otel.Tracer("classify/Client").Start(ctx, "Analyze")
	defer span.End()

	res, reason, err := c.analyze(ctx, text)
	span.SetAttributes(attribute.String("classify.outcome", string(reason)))
	classifications.WithLabelValues(string(reason)).Inc()

	lg := zerolog.Ctx(ctx)
	if reason != ReasonOK {
		lg.Warn().Err(err).Str("reason", string(reason)).Msg("classification failed, using fallback")
		return domain.FallbackClassification()
	}
	lg.Debug().
		Str("category", string(res.Category)).
		Str("urgency", string(res.Urgency)).
		Msg("complaint classified")
	return res
}

func (c *Client) analyze(ctx context.Context, text string) (domain.Classification, Reason, error) {
	if c.Gen == nil {
		return domain.Classification{}, ReasonProvider, errors.New("no generator configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	prompt := BuildPrompt(norm.NFC.String(strings.TrimSpace(text)))
	raw, err := c.Gen.Generate(ctx, prompt)
	if err != nil {
		return domain.Classification{}, providerReason(ctx, err), err
	}

	res, err := parseOutput(raw)
	switch {
	case err == nil:
		return res, ReasonOK, nil
	case errors.Is(err, ErrEmptyOutput):
		return res, ReasonEmpty, err
	case errors.Is(err, ErrInvalidOutput):
		return res, ReasonInvalid, err
	default:
		return res, ReasonMalformed, err
	}
}

// providerReason separates deadline and cancellation from other provider
// errors. The context is consulted too because SDKs do not always wrap the
// context error.
func providerReason(ctx context.Context, err error) Reason {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return ReasonCanceled
	default:
		return ReasonProvider
	}
}
