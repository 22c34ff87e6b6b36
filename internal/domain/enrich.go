package domain

import "time"

// Enrich builds the record to persist from a submission and its
// classification.
//
// Submission fields are applied first and classification fields second, so
// on a name collision the classification value wins. The two field sets are
// disjoint today; the order only matters if either one grows. Identity
// defaults are applied here as well, so callers may pass a raw submission.
//
// now is the merge time, not the request arrival time. It is stored in UTC
// using CreatedAtLayout. The returned record has no ID.
func Enrich(sub Submission, c Classification, now time.Time) Complaint {
	sub = sub.WithDefaults()

	rec := Complaint{
		ComplaintText: sub.Description,
		UserID:        sub.UserID,
		UserEmail:     sub.UserEmail,
		UserName:      sub.UserName,
		CreatedAt:     now.UTC().Format(CreatedAtLayout),
		Status:        StatusOpen,
	}

	rec.Category = c.Category
	rec.Urgency = c.Urgency
	rec.Sentiment = c.Sentiment
	rec.Summary = c.Summary
	rec.SuggestedAction = c.SuggestedAction

	return rec
}
