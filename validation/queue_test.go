package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store/memstore"
)

type mockValidator struct{ mock.Mock }

func (m *mockValidator) Validate(ctx context.Context, e *models.CampaignEvidence) (*Verdict, error) {
	args := m.Called(e.ID)
	v, _ := args.Get(0).(*Verdict)
	return v, args.Error(1)
}

func seedEvidence(t *testing.T, s *memstore.Store) *models.CampaignEvidence {
	t.Helper()
	e := &models.CampaignEvidence{
		CampaignID:   primitive.NewObjectID(),
		SubmittedBy:  primitive.NewObjectID(),
		Title:        "Photo of the spill",
		EvidenceType: models.EvidencePhoto,
		Source:       models.SourcePersonal,
		Status:       models.EvidencePending,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.Evidence().Insert(context.Background(), e))
	return e
}

func TestQueue_AppliesVerdicts(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	accepted := seedEvidence(t, s)
	review := seedEvidence(t, s)
	failed := seedEvidence(t, s)

	v := &mockValidator{}
	v.On("Validate", accepted.ID).Return(&Verdict{IsVerified: true, ConfidenceScore: 0.9, Method: "ai:test"}, nil)
	v.On("Validate", review.ID).Return(&Verdict{IsVerified: false, ConfidenceScore: 0.3}, nil)
	v.On("Validate", failed.ID).Return(nil, errors.New("model unavailable"))

	q := NewQueue(v, s.Evidence(), nil, QueueOptions{Workers: 2, Size: 10, Timeout: time.Second})
	q.Start(ctx)
	assert.True(t, q.Enqueue(accepted.ID))
	assert.True(t, q.Enqueue(review.ID))
	assert.True(t, q.Enqueue(failed.ID))
	require.NoError(t, q.Close(ctx))
	v.AssertExpectations(t)

	got, err := s.Evidence().Get(ctx, accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EvidenceAccepted, got.Status)
	require.NotNil(t, got.Verification)
	assert.True(t, got.Verification.IsVerified)
	assert.Equal(t, "ai:test", got.Verification.Method)
	assert.False(t, got.Verification.Date.IsZero())

	got, _ = s.Evidence().Get(ctx, review.ID)
	assert.Equal(t, models.EvidenceUnderReview, got.Status)

	got, _ = s.Evidence().Get(ctx, failed.ID)
	assert.Equal(t, models.EvidencePending, got.Status)
	assert.Nil(t, got.Verification)
}

func TestQueue_EnqueueNeverBlocks(t *testing.T) {
	s := memstore.New()
	q := NewQueue(&mockValidator{}, s.Evidence(), nil, QueueOptions{Workers: 1, Size: 1})

	// Workers not started: the buffer holds one job and the rest are dropped.
	assert.True(t, q.Enqueue(primitive.NewObjectID()))
	assert.False(t, q.Enqueue(primitive.NewObjectID()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = q.Close(ctx)
	assert.False(t, q.Enqueue(primitive.NewObjectID()))
}
