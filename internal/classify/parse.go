package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// Output errors. Each one maps to its own fallback reason.
var (
	// ErrEmptyOutput is returned when the model answered with blank text.
	ErrEmptyOutput = errors.New("empty model output")

	// ErrMalformedOutput is returned when no JSON object could be decoded.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrInvalidOutput is returned when the object decoded but a field is
	// missing, blank, or outside its enumeration.
	ErrInvalidOutput = errors.New("invalid model output")
)

// fenceRE matches a markdown code fence marker with an optional language tag.
var fenceRE = regexp.MustCompile("```[A-Za-z]*")

// stripWrappers removes the formatting models commonly put around JSON:
// code fences, leading prose and trailing prose. It returns the outermost
// {...} span, or the trimmed input when no braces are present.
func stripWrappers(raw string) string {
	s := fenceRE.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// rawOutput mirrors the expected model object. Pointers distinguish a
// missing field from an empty one.
type rawOutput struct {
	Category        *string `json:"category"`
	Urgency         *string `json:"urgency"`
	Sentiment       *string `json:"sentiment"`
	Summary         *string `json:"summary"`
	SuggestedAction *string `json:"suggested_action"`
}

// parseOutput turns raw model text into a validated classification.
// Enumerated values are matched case-insensitively and returned in their
// canonical spelling. Unknown extra fields are ignored.
func parseOutput(raw string) (domain.Classification, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Classification{}, ErrEmptyOutput
	}

	body := stripWrappers(raw)
	var out rawOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var c domain.Classification
	var ok bool
	if out.Category == nil {
		return c, missing("category")
	}
	if c.Category, ok = domain.ParseCategory(*out.Category); !ok {
		return c, outOfRange("category", *out.Category)
	}
	if out.Urgency == nil {
		return c, missing("urgency")
	}
	if c.Urgency, ok = domain.ParseUrgency(*out.Urgency); !ok {
		return c, outOfRange("urgency", *out.Urgency)
	}
	if out.Sentiment == nil {
		return c, missing("sentiment")
	}
	if c.Sentiment, ok = domain.ParseSentiment(*out.Sentiment); !ok {
		return c, outOfRange("sentiment", *out.Sentiment)
	}
	if out.Summary == nil || strings.TrimSpace(*out.Summary) == "" {
		return c, missing("summary")
	}
	c.Summary = strings.TrimSpace(*out.Summary)
	if out.SuggestedAction == nil || strings.TrimSpace(*out.SuggestedAction) == "" {
		return c, missing("suggested_action")
	}
	c.SuggestedAction = strings.TrimSpace(*out.SuggestedAction)

	if !c.Valid() {
		return domain.Classification{}, fmt.Errorf("%w: %+v", ErrInvalidOutput, c)
	}
	return c, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s missing", ErrInvalidOutput, field)
}

func outOfRange(field, val string) error {
	return fmt.Errorf("%w: %s %q not allowed", ErrInvalidOutput, field, val)
}
