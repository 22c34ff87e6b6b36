// Package services – ComplaintService
//
// ComplaintService runs the submission pipeline: it validates the description,
// asks the classifier for an analysis, merges submission and analysis into a
// record and hands the record to the store. Classification never fails the
// request; store failures do.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// Classifier analyzes complaint text. Implementations must always return a
// usable classification, falling back when the model cannot answer.
type Classifier interface {
	Analyze(ctx context.Context, text string) domain.Classification
}

// ComplaintStore is the persistence contract ComplaintService needs.
type ComplaintStore interface {
	Create(ctx context.Context, c *domain.Complaint) (string, error)
	ListAll(ctx context.Context, newestFirst bool) ([]domain.Complaint, error)
}

// SubmitResult is what a successful submission returns to the caller.
type SubmitResult struct {
	ID       string
	Analysis domain.Classification
}

// ComplaintService coordinates classification and persistence.
type ComplaintService struct {
	Classifier Classifier
	Store      ComplaintStore

	// MaxDescriptionRunes caps description length; <= 0 disables the check.
	MaxDescriptionRunes int

	// Now returns the enrichment timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewComplaintService wires a service with no description length limit.
func NewComplaintService(cl Classifier, st ComplaintStore) *ComplaintService {
	return &ComplaintService{
		Classifier: cl,
		Store:      st,
		Now:        time.Now,
	}
}

// Submit classifies and stores one complaint and returns the new id with the
// analysis used for the record.
func (s *ComplaintService) Submit(ctx context.Context, sub domain.Submission) (*SubmitResult, error) {
	sub = sub.WithDefaults()

	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("user.id", sub.UserID)),
	)
	defer span.End()

	sub.Description = normalizeDescription(sub.Description)
	if sub.Description == "" {
		return nil, ErrEmptyDescription
	}
	if s.MaxDescriptionRunes > 0 && utf8.RuneCountInString(sub.Description) > s.MaxDescriptionRunes {
		return nil, ErrTooLong
	}

	analysis := s.Classifier.Analyze(ctx, sub.Description)
	span.SetAttributes(
		attribute.String("complaint.category", string(analysis.Category)),
		attribute.Bool("complaint.fallback", analysis.IsFallback()),
	)

	rec := domain.Enrich(sub, analysis, s.now())
	id, err := s.Store.Create(ctx, &rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store create failed")
		return nil, fmt.Errorf("store complaint: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("complaint_id", id).
		Str("category", string(analysis.Category)).
		Str("urgency", string(analysis.Urgency)).
		Msg("complaint stored")

	return &SubmitResult{ID: id, Analysis: analysis}, nil
}

// List returns every stored complaint, newest first when the store can sort.
func (s *ComplaintService) List(ctx context.Context) ([]domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	out, err := s.Store.ListAll(ctx, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store list failed")
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	span.SetAttributes(attribute.Int("complaint.count", len(out)))
	return out, nil
}

func (s *ComplaintService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// normalizeDescription converts CRLF line endings and trims surrounding
// whitespace. Inner text is kept verbatim.
func normalizeDescription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
