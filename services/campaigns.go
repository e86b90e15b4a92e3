package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/store"
	"github.com/phillip/civic-go/utils"
)

const MaxCoverSize = 5 << 20

type Campaigns struct {
	store   store.Store
	uploads Uploader
	logger  *slog.Logger
}

// ---------------- CREATE ----------------

type CreateCampaignInput struct {
	Title            string
	Description      string
	ShortDescription string
	Category         string
	Tags             []string
	Location         string
	EndDate          *time.Time
}

// Create inserts a draft campaign at step 1 together with its team, led by
// the creator.
func (s *Campaigns) Create(ctx context.Context, actorID primitive.ObjectID, in CreateCampaignInput) (*models.Campaign, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" || in.Description == "" || in.ShortDescription == "" || in.Category == "" {
		return nil, errs.Validation(errs.CodeMissingFields, "title, description, shortDescription and category are required")
	}

	now := time.Now()
	teamID := primitive.NewObjectID()
	c := &models.Campaign{
		ID:               primitive.NewObjectID(),
		Title:            in.Title,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Category:         in.Category,
		Tags:             cleanTags(in.Tags),
		Location:         strings.TrimSpace(in.Location),
		EndDate:          in.EndDate,
		Status:           models.CampaignDraft,
		CreationStep:     models.StepBasicInfo,
		CreatedBy:        actorID,
		Team:             &teamID,
		Victims:          []primitive.ObjectID{},
		Evidence:         []primitive.ObjectID{},
		Supporters:       []models.Supporter{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	leader := actorID
	team := &models.CampaignTeam{
		ID:         teamID,
		CampaignID: c.ID,
		Leader: &models.TeamMember{
			UserID:         &leader,
			InvitedAt:      &now,
			AcceptedInvite: true,
		},
		AdditionalMembers: []models.AdditionalMember{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Campaigns().Insert(ctx, c); err != nil {
			return err
		}
		return s.store.Teams().Insert(ctx, team)
	})
	if err != nil {
		s.logger.Error("create campaign failed", "user_id", actorID.Hex(), "error", err)
		return nil, storeErr(err, "campaign")
	}
	return c, nil
}

// ---------------- GET ----------------

// Get returns the populated campaign and counts the view.
func (s *Campaigns) Get(ctx context.Context, id primitive.ObjectID) (*models.CampaignDetail, error) {
	if err := s.store.Campaigns().IncrementViews(ctx, id); err != nil {
		return nil, storeErr(err, "campaign")
	}
	c, err := s.store.Campaigns().Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "campaign")
	}
	return s.populate(ctx, c)
}

func (s *Campaigns) populate(ctx context.Context, c *models.Campaign) (*models.CampaignDetail, error) {
	d := &models.CampaignDetail{Campaign: *c}

	team, err := s.store.Teams().GetByCampaign(ctx, c.ID)
	switch {
	case err == nil:
		d.TeamDoc = team
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeErr(err, "team")
	}
	if d.VictimDocs, err = s.store.Victims().ListByCampaign(ctx, c.ID); err != nil {
		return nil, storeErr(err, "victims")
	}
	if d.EvidenceDocs, err = s.store.Evidence().ListByCampaign(ctx, c.ID); err != nil {
		return nil, storeErr(err, "evidence")
	}
	return d, nil
}

// ---------------- LIST ----------------

type ListCampaignsInput struct {
	Category string
	Location string
	Status   string // empty means active, "all" disables the filter
	Search   string
	Sort     string
	Page     int
	Limit    int
}

func (s *Campaigns) List(ctx context.Context, in ListCampaignsInput) ([]models.Campaign, utils.Pagination, error) {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	switch status {
	case "":
		status = string(models.CampaignActive)
	case "all":
		status = ""
	default:
		if !models.CampaignStatus(status).Valid() {
			return nil, utils.Pagination{}, errs.Validation(errs.CodeInvalidInput, "invalid status %q", in.Status)
		}
	}
	return s.list(ctx, store.CampaignQuery{
		Category: strings.TrimSpace(in.Category),
		Location: strings.TrimSpace(in.Location),
		Status:   status,
		Search:   strings.TrimSpace(in.Search),
		Sort:     in.Sort,
	}, in.Page, in.Limit)
}

// Mine lists every campaign the actor created, in any status.
func (s *Campaigns) Mine(ctx context.Context, actorID primitive.ObjectID, page, limit int) ([]models.Campaign, utils.Pagination, error) {
	return s.list(ctx, store.CampaignQuery{CreatedBy: &actorID}, page, limit)
}

func (s *Campaigns) list(ctx context.Context, q store.CampaignQuery, page, limit int) ([]models.Campaign, utils.Pagination, error) {
	page = min(max(page, 1), utils.MaxPage)
	if limit < 1 {
		limit = utils.DefaultLimit
	}
	limit = min(limit, utils.MaxLimit)
	q.Skip = utils.Skip(page, limit)
	q.Limit = int64(limit)

	out, total, err := s.store.Campaigns().List(ctx, q)
	if err != nil {
		return nil, utils.Pagination{}, storeErr(err, "campaigns")
	}
	return out, utils.NewPagination(total, page, limit), nil
}

// ---------------- COVER IMAGE ----------------

func (s *Campaigns) SetCoverImage(ctx context.Context, campaignID, actorID primitive.ObjectID, f storage.UploadFile) (string, error) {
	c, err := loadContributor(ctx, s.store, campaignID, actorID)
	if err != nil {
		return "", err
	}
	if f.Open == nil {
		return "", errs.Validation(errs.CodeMissingFields, "cover image file is required")
	}
	if f.Size > MaxCoverSize {
		return "", errs.Validation(errs.CodeInvalidInput, "cover image must be at most 5MB")
	}
	if f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") {
		return "", errs.Validation(errs.CodeInvalidInput, "cover image must be an image")
	}

	res, err := s.uploads.UploadCover(ctx, f)
	if err != nil {
		s.logger.Error("cover upload failed", "user_id", actorID.Hex(), "campaign_id", campaignID.Hex(), "file", f.FileName, "error", err)
		return "", errs.Wrap(errs.KindExternal, errs.CodeStorageFailed, "failed to upload cover image", err)
	}
	if err := s.store.Campaigns().SetCoverImage(ctx, campaignID, res.URL); err != nil {
		return "", storeErr(err, "campaign")
	}

	if c.CoverImage != nil && *c.CoverImage != "" && *c.CoverImage != res.URL {
		if err := s.uploads.Delete(ctx, *c.CoverImage); err != nil {
			s.logger.Warn("failed to delete previous cover", "campaign_id", campaignID.Hex(), "url", *c.CoverImage, "error", err)
		}
	}
	return res.URL, nil
}

// ---------------- TEAM INVITATIONS ----------------

// AcceptInvitation accepts every pending seat on the campaign team held by
// the actor.
func (s *Campaigns) AcceptInvitation(ctx context.Context, campaignID, actorID primitive.ObjectID) (*models.CampaignTeam, error) {
	var team *models.CampaignTeam
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if team, err = s.store.Teams().GetByCampaign(ctx, campaignID); err != nil {
			return storeErr(err, "team")
		}

		accepted := 0
		for _, m := range team.NamedRoles() {
			if m.Pending() && *m.UserID == actorID {
				m.AcceptedInvite = true
				accepted++
			}
		}
		for i := range team.AdditionalMembers {
			m := &team.AdditionalMembers[i]
			if m.UserID != nil && *m.UserID == actorID && !m.AcceptedInvite {
				m.AcceptedInvite = true
				accepted++
			}
		}
		if accepted == 0 {
			return errs.NotFound("pending invitation")
		}
		team.UpdatedAt = time.Now()
		return storeErr(s.store.Teams().Update(ctx, team), "team")
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
