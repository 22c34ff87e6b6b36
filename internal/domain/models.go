package domain

import "time"

// Identity placeholders applied when a submission omits who filed it.
const (
	AnonymousUserID    = "anonymous"
	AnonymousUserEmail = "anonymous"
	AnonymousUserName  = "Anonymous Student"
)

// StatusOpen is the status every complaint is created with.
const StatusOpen = "Open"

// CreatedAtLayout is the UTC timestamp format stored in CreatedAt. The fixed
// microsecond width keeps lexical order equal to chronological order, which
// the stores rely on when sorting by created_at.
const CreatedAtLayout = "2006-01-02T15:04:05.000000Z"

// Submission is the raw complaint as sent by a client. It is never stored
// as-is; see Enrich.
type Submission struct {
	Description string
	UserID      string
	UserEmail   string
	UserName    string
}

// WithDefaults returns a copy of s where blank identity fields are replaced
// with the anonymous placeholders.
func (s Submission) WithDefaults() Submission {
	if s.UserID == "" {
		s.UserID = AnonymousUserID
	}
	if s.UserEmail == "" {
		s.UserEmail = AnonymousUserEmail
	}
	if s.UserName == "" {
		s.UserName = AnonymousUserName
	}
	return s
}

// Complaint is the enriched, persisted record. It is created once by Enrich
// and never updated afterwards.
//
// ID is assigned by the store: a UUID for SQLite, an ObjectID hex string for
// MongoDB and the document ID for Firestore. It is not part of the stored
// document body for the document stores.
type Complaint struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey" bson:"-"                firestore:"-"`
	ComplaintText   string    `json:"complaint_text"   gorm:"type:text;not null"       bson:"complaint_text"   firestore:"complaint_text"`
	UserID          string    `json:"user_id"          gorm:"type:varchar(128);index"  bson:"user_id"          firestore:"user_id"`
	UserEmail       string    `json:"user_email"       gorm:"type:varchar(255)"        bson:"user_email"       firestore:"user_email"`
	UserName        string    `json:"user_name"        gorm:"type:varchar(255)"        bson:"user_name"        firestore:"user_name"`
	CreatedAt       string    `json:"created_at"       gorm:"type:varchar(32);index" bson:"created_at" firestore:"created_at"`
	Status          string    `json:"status"           gorm:"type:varchar(32);not null;default:'Open'" bson:"status" firestore:"status"`
	Category        Category  `json:"category"         gorm:"type:varchar(32)"         bson:"category"         firestore:"category"`
	Urgency         Urgency   `json:"urgency"          gorm:"type:varchar(16)"         bson:"urgency"          firestore:"urgency"`
	Sentiment       Sentiment `json:"sentiment"        gorm:"type:varchar(16)"         bson:"sentiment"        firestore:"sentiment"`
	Summary         string    `json:"summary"          gorm:"type:text"                bson:"summary"          firestore:"summary"`
	SuggestedAction string    `json:"suggested_action" gorm:"type:text"                bson:"suggested_action" firestore:"suggested_action"`
}

// TableName returns the database table name for Complaint.
func (Complaint) TableName() string { return "complaints" }

// Classification returns the classification fields of the record.
func (c Complaint) Classification() Classification {
	return Classification{
		Category:        c.Category,
		Urgency:         c.Urgency,
		Sentiment:       c.Sentiment,
		Summary:         c.Summary,
		SuggestedAction: c.SuggestedAction,
	}
}

// CreatedTime parses CreatedAt. The zero time is returned for records whose
// timestamp cannot be parsed.
func (c Complaint) CreatedTime() time.Time {
	t, err := time.Parse(CreatedAtLayout, c.CreatedAt)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, c.CreatedAt); err != nil {
			return time.Time{}
		}
	}
	return t
}
