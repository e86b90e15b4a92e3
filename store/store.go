// Package store declares the document store the services depend on.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrConflict  = errors.New("store: version conflict")
	ErrDuplicate = errors.New("store: duplicate")
)

// Store is the document database. WithTransaction runs fn atomically: every
// repository call made with the ctx passed to fn commits or rolls back together.
type Store interface {
	Campaigns() CampaignRepository
	Teams() TeamRepository
	Victims() VictimRepository
	Evidence() EvidenceRepository
	Users() UserRepository

	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
}

type CampaignQuery struct {
	CreatedBy *primitive.ObjectID
	Category  string
	Location  string
	Status    string // empty matches every status
	Search    string
	Sort      string // newest|oldest|popular|ending_soon
	Skip      int64
	Limit     int64
}

type CampaignRepository interface {
	Insert(ctx context.Context, c *models.Campaign) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	// Update replaces the document if its stored version equals c.Version,
	// then bumps c.Version. Returns ErrConflict otherwise.
	Update(ctx context.Context, c *models.Campaign) error
	List(ctx context.Context, q CampaignQuery) ([]models.Campaign, int64, error)

	AppendEvidence(ctx context.Context, campaignID, evidenceID primitive.ObjectID, minStep int) error
	SetCoverImage(ctx context.Context, campaignID primitive.ObjectID, url string) error
	IncrementViews(ctx context.Context, campaignID primitive.ObjectID) error

	// AddSupporter appends s unless the user already supports the campaign
	// (ErrDuplicate) and bumps the engagement counters in the same write.
	AddSupporter(ctx context.Context, campaignID primitive.ObjectID, s models.Supporter) error
	// RemoveSupporter drops the user's record and decrements counters,
	// floored at zero. Returns the removed record or ErrNotFound.
	RemoveSupporter(ctx context.Context, campaignID, userID primitive.ObjectID) (*models.Supporter, error)
}

type TeamRepository interface {
	Insert(ctx context.Context, t *models.CampaignTeam) error
	GetByCampaign(ctx context.Context, campaignID primitive.ObjectID) (*models.CampaignTeam, error)
	Update(ctx context.Context, t *models.CampaignTeam) error
}

type VictimRepository interface {
	Insert(ctx context.Context, v *models.CampaignVictim) error
	Update(ctx context.Context, v *models.CampaignVictim) error
	ListByCampaign(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignVictim, error)
	Delete(ctx context.Context, ids []primitive.ObjectID) error
	DeleteByCampaign(ctx context.Context, campaignID primitive.ObjectID) error
}

type EvidenceRepository interface {
	Insert(ctx context.Context, e *models.CampaignEvidence) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.CampaignEvidence, error)
	ListByCampaign(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignEvidence, error)
	CountByCampaign(ctx context.Context, campaignID primitive.ObjectID) (int64, error)
	SetVerification(ctx context.Context, id primitive.ObjectID, v models.Verification, status models.EvidenceStatus) error
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	// AddSupport set-adds campaignID to campaigns_supported (and
	// campaigns_signed when signed) and appends an activity entry.
	AddSupport(ctx context.Context, userID, campaignID primitive.ObjectID, signed bool, activity models.Activity) error
	RemoveSupport(ctx context.Context, userID, campaignID primitive.ObjectID, signed bool) error
}
