package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/campuspulse-backend/internal/domain"
)

// ---------- test doubles ----------

type mockClassifier struct{ mock.Mock }

func (m *mockClassifier) Analyze(ctx context.Context, text string) domain.Classification {
	return m.Called(ctx, text).Get(0).(domain.Classification)
}

// memStore records every created complaint in memory.
type memStore struct {
	created []domain.Complaint
	list    []domain.Complaint
	err     error
	ordered []bool
}

func (s *memStore) Create(_ context.Context, c *domain.Complaint) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	c.ID = "id-" + string(rune('a'+len(s.created)))
	s.created = append(s.created, *c)
	return c.ID, nil
}

func (s *memStore) ListAll(_ context.Context, newestFirst bool) ([]domain.Complaint, error) {
	s.ordered = append(s.ordered, newestFirst)
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

var fixedNow = time.Date(2025, 5, 6, 7, 8, 9, 123456000, time.UTC)

func wifiAnalysis() domain.Classification {
	return domain.Classification{
		Category:        domain.CategoryWiFi,
		Urgency:         domain.UrgencyHigh,
		Sentiment:       domain.SentimentNegative,
		Summary:         "Hostel WiFi is down.",
		SuggestedAction: "Restart the hostel access points.",
	}
}

func newSvc(cl Classifier, st ComplaintStore) *ComplaintService {
	s := NewComplaintService(cl, st)
	s.Now = func() time.Time { return fixedNow }
	return s
}

// ---------- Submit ----------

func TestSubmit_StoresEnrichedRecord(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, "WiFi in hostel B is down since morning").Return(wifiAnalysis()).Once()
	st := &memStore{}

	res, err := newSvc(cl, st).Submit(context.Background(), domain.Submission{
		Description: "  WiFi in hostel B is down since morning\r\n",
		UserID:      "u42",
		UserEmail:   "s@campus.edu",
		UserName:    "Sam",
	})
	require.NoError(t, err)
	cl.AssertExpectations(t)

	assert.Equal(t, "id-a", res.ID)
	assert.Equal(t, wifiAnalysis(), res.Analysis)

	require.Len(t, st.created, 1)
	rec := st.created[0]
	assert.Equal(t, "WiFi in hostel B is down since morning", rec.ComplaintText)
	assert.Equal(t, "u42", rec.UserID)
	assert.Equal(t, "s@campus.edu", rec.UserEmail)
	assert.Equal(t, "Sam", rec.UserName)
	assert.Equal(t, domain.StatusOpen, rec.Status)
	assert.Equal(t, "2025-05-06T07:08:09.123456Z", rec.CreatedAt)
	assert.Equal(t, wifiAnalysis(), rec.Classification())
}

func TestSubmit_AnonymousDefaults(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(wifiAnalysis())
	st := &memStore{}

	_, err := newSvc(cl, st).Submit(context.Background(), domain.Submission{Description: "Lights broken"})
	require.NoError(t, err)

	rec := st.created[0]
	assert.Equal(t, domain.AnonymousUserID, rec.UserID)
	assert.Equal(t, domain.AnonymousUserEmail, rec.UserEmail)
	assert.Equal(t, domain.AnonymousUserName, rec.UserName)
}

func TestSubmit_FallbackIsStillStored(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(domain.FallbackClassification())
	st := &memStore{}

	res, err := newSvc(cl, st).Submit(context.Background(), domain.Submission{Description: "something"})
	require.NoError(t, err)
	assert.True(t, res.Analysis.IsFallback())
	require.Len(t, st.created, 1)
	assert.Equal(t, domain.CategoryUncategorized, st.created[0].Category)
}

func TestSubmit_Validation(t *testing.T) {
	cases := []struct {
		name string
		desc string
		want error
	}{
		{"empty", "", ErrEmptyDescription},
		{"whitespace", " \r\n\t ", ErrEmptyDescription},
		{"too long", strings.Repeat("é", 5001), ErrTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cl := &mockClassifier{}
			st := &memStore{}
			svc := newSvc(cl, st)
			svc.MaxDescriptionRunes = 5000
			_, err := svc.Submit(context.Background(), domain.Submission{Description: tc.desc})
			assert.ErrorIs(t, err, tc.want)
			cl.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
			assert.Empty(t, st.created)
		})
	}
}

func TestSubmit_LimitCountsRunes(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(wifiAnalysis())
	svc := newSvc(cl, &memStore{})
	svc.MaxDescriptionRunes = 5000

	_, err := svc.Submit(context.Background(), domain.Submission{Description: strings.Repeat("é", 5000)})
	assert.NoError(t, err)

	svc.MaxDescriptionRunes = 0
	_, err = svc.Submit(context.Background(), domain.Submission{Description: strings.Repeat("x", 10000)})
	assert.NoError(t, err)
}

func TestSubmit_NoLimitByDefault(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(wifiAnalysis())
	st := &memStore{}

	res, err := newSvc(cl, st).Submit(context.Background(), domain.Submission{Description: strings.Repeat("é", 5001)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	require.Len(t, st.created, 1)
}

func TestSubmit_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("firestore unavailable")
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(wifiAnalysis())

	res, err := newSvc(cl, &memStore{err: boom}).Submit(context.Background(), domain.Submission{Description: "x"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "firestore unavailable")
}

func TestSubmit_IdenticalSubmissionsAreDistinctRecords(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(wifiAnalysis())
	st := &memStore{}
	svc := newSvc(cl, st)

	a, err := svc.Submit(context.Background(), domain.Submission{Description: "same"})
	require.NoError(t, err)
	b, err := svc.Submit(context.Background(), domain.Submission{Description: "same"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, st.created, 2)
	cl.AssertNumberOfCalls(t, "Analyze", 2)
}

func TestSubmit_DefaultClock(t *testing.T) {
	cl := &mockClassifier{}
	cl.On("Analyze", mock.Anything, mock.Anything).Return(wifiAnalysis())
	st := &memStore{}
	svc := &ComplaintService{Classifier: cl, Store: st}

	before := time.Now().UTC().Add(-time.Second)
	_, err := svc.Submit(context.Background(), domain.Submission{Description: "x"})
	require.NoError(t, err)
	assert.True(t, st.created[0].CreatedTime().After(before))
}

// ---------- List ----------

func TestList_RequestsNewestFirst(t *testing.T) {
	st := &memStore{list: []domain.Complaint{{ID: "b"}, {ID: "a"}}}
	out, err := newSvc(&mockClassifier{}, st).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, st.list, out)
	assert.Equal(t, []bool{true}, st.ordered)
}

func TestList_ErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := newSvc(&mockClassifier{}, &memStore{err: boom}).List(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "a\nb", normalizeDescription("  a\r\nb \n"))
	assert.Equal(t, "keep  inner   spaces", normalizeDescription("keep  inner   spaces"))
	assert.Equal(t, "", normalizeDescription("\r\n"))
}
