// Package domain defines the complaint records handled by the service and the
// structured classification attached to each of them. The same types are
// mapped to every supported store (GORM, MongoDB, Firestore) through struct
// tags, so the wire JSON and the stored document share field names.
package domain

import "strings"

// Category is the topic a complaint is filed under.
type Category string

const (
	CategoryWiFi           Category = "WiFi"
	CategoryWater          Category = "Water"
	CategoryCleanliness    Category = "Cleanliness"
	CategoryInfrastructure Category = "Infrastructure"
	CategorySafety         Category = "Safety"
	CategoryAcademic       Category = "Academic"
	CategoryOther          Category = "Other"

	// CategoryUncategorized is only ever produced by the fallback record.
	CategoryUncategorized Category = "Uncategorized"
)

// Urgency is how quickly a complaint should be looked at.
type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

// Sentiment is the emotional tone of the complaint text.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Categories lists the categories the model may choose from, in prompt order.
var Categories = []Category{
	CategoryWiFi, CategoryWater, CategoryCleanliness, CategoryInfrastructure,
	CategorySafety, CategoryAcademic, CategoryOther,
}

// Urgencies lists the accepted urgency levels, in prompt order.
var Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow}

// Sentiments lists the accepted sentiments, in prompt order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// ParseCategory matches s case-insensitively against Categories and returns
// the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	return match(s, Categories)
}

// ParseUrgency matches s case-insensitively against Urgencies.
func ParseUrgency(s string) (Urgency, bool) {
	return match(s, Urgencies)
}

// ParseSentiment matches s case-insensitively against Sentiments.
func ParseSentiment(s string) (Sentiment, bool) {
	return match(s, Sentiments)
}

func match[T ~string](s string, set []T) (T, bool) {
	s = strings.TrimSpace(s)
	for _, v := range set {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Classification is the structured analysis produced for a complaint text.
// All five fields are always populated: either from a validated model answer
// or from FallbackClassification.
type Classification struct {
	Category        Category  `json:"category"         example:"WiFi"`
	Urgency         Urgency   `json:"urgency"          example:"High"`
	Sentiment       Sentiment `json:"sentiment"        example:"Negative"`
	Summary         string    `json:"summary"          example:"WiFi outage in Block C"`
	SuggestedAction string    `json:"suggested_action" example:"Dispatch network team to Block C"`
}

// FallbackClassification is substituted whenever the model cannot produce a
// valid classification.
func FallbackClassification() Classification {
	return Classification{
		Category:        CategoryUncategorized,
		Urgency:         UrgencyMedium,
		Sentiment:       SentimentNeutral,
		Summary:         "Analysis failed",
		SuggestedAction: "Manual review required",
	}
}

// IsFallback reports whether c is exactly the fallback record.
func (c Classification) IsFallback() bool {
	return c == FallbackClassification()
}

// Valid reports whether every enumerated field is drawn from its enumeration
// (spelled canonically) and both free-text fields are non-blank.
func (c Classification) Valid() bool {
	if v, ok := ParseCategory(string(c.Category)); !ok || v != c.Category {
		return false
	}
	if v, ok := ParseUrgency(string(c.Urgency)); !ok || v != c.Urgency {
		return false
	}
	if v, ok := ParseSentiment(string(c.Sentiment)); !ok || v != c.Sentiment {
		return false
	}
	return strings.TrimSpace(c.Summary) != "" && strings.TrimSpace(c.SuggestedAction) != ""
}
