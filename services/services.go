// Package services holds the campaign business rules: the creation state
// machine, evidence intake and the support ledger.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/store"
)

// Uploader stores evidence files and cover images. *storage.Router
// implements it.
type Uploader interface {
	UploadEvidence(ctx context.Context, t models.EvidenceType, f storage.UploadFile) (*storage.Result, error)
	UploadCover(ctx context.Context, f storage.UploadFile) (*storage.Result, error)
	Delete(ctx context.Context, url string) error
}

// Enqueuer schedules evidence validation without waiting for it.
type Enqueuer interface {
	Enqueue(evidenceID primitive.ObjectID) bool
}

type Services struct {
	Campaigns  *Campaigns
	Evidence   *Evidence
	Supporters *Supporters
}

// New wires the services. queue may be nil when validation is disabled.
func New(st store.Store, uploads Uploader, queue Enqueuer, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		Campaigns:  &Campaigns{store: st, uploads: uploads, logger: logger.With("service", "campaigns")},
		Evidence:   &Evidence{store: st, uploads: uploads, queue: queue, logger: logger.With("service", "evidence")},
		Supporters: &Supporters{store: st, logger: logger.With("service", "supporters")},
	}
}

// storeErr translates repository sentinels into client-facing errors.
func storeErr(err error, what string) error {
	var e *errs.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return err
	case errors.Is(err, store.ErrNotFound):
		return errs.NotFound(what)
	case errors.Is(err, store.ErrConflict):
		return errs.ErrConflict
	default:
		return errs.Internal("failed to access "+what, err)
	}
}

// ParseID parses a hex object id, reporting what it names on failure.
func ParseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, errs.Validation(errs.CodeInvalidID, "invalid %s id", what)
	}
	return id, nil
}

func optionalID(hex, what string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return nil, nil
	}
	id, err := ParseID(hex, what)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func sameID(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// loadContributor returns the campaign if actor is its creator or an
// accepted team member.
func loadContributor(ctx context.Context, st store.Store, campaignID, actorID primitive.ObjectID) (*models.Campaign, error) {
	c, err := st.Campaigns().Get(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err, "campaign")
	}
	if c.CreatedBy == actorID {
		return c, nil
	}
	team, err := st.Teams().GetByCampaign(ctx, campaignID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "team")
	}
	if !team.IsAcceptedMember(actorID) {
		return nil, errs.ErrForbidden
	}
	return c, nil
}
