package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store"
	"github.com/phillip/civic-go/utils"
)

type Supporters struct {
	store  store.Store
	logger *slog.Logger
}

type AddSupportInput struct {
	CampaignID  primitive.ObjectID
	UserID      primitive.ObjectID
	SupportType models.SupportType
	Message     string
	IsAnonymous bool
}

// ---------------- ADD ----------------

// Add records the user's support. The store refuses a second record for the
// same user, so concurrent duplicates cannot both land.
func (s *Supporters) Add(ctx context.Context, in AddSupportInput) (*models.Supporter, error) {
	if !in.SupportType.Valid() {
		return nil, errs.Validation(errs.CodeInvalidInput, "invalid support type %q", in.SupportType)
	}

	now := time.Now()
	sup := models.Supporter{
		UserID:      in.UserID,
		SupportType: in.SupportType,
		SupportedAt: now,
		IsAnonymous: in.IsAnonymous,
		Message:     strings.TrimSpace(in.Message),
	}
	signed := in.SupportType == models.SupportSignature
	action := models.ActivitySupportedCampaign
	if signed {
		action = models.ActivitySignedCampaign
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		err := s.store.Campaigns().AddSupporter(ctx, in.CampaignID, sup)
		if errors.Is(err, store.ErrDuplicate) {
			return errs.ErrAlreadySupporting
		}
		if err != nil {
			return storeErr(err, "campaign")
		}
		return storeErr(s.store.Users().AddSupport(ctx, in.UserID, in.CampaignID, signed, models.Activity{
			Action:     action,
			CampaignID: in.CampaignID,
			At:         now,
		}), "user")
	})
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

// ---------------- REMOVE ----------------

func (s *Supporters) Remove(ctx context.Context, campaignID, userID primitive.ObjectID) error {
	return s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.Campaigns().Get(ctx, campaignID); err != nil {
			return storeErr(err, "campaign")
		}
		removed, err := s.store.Campaigns().RemoveSupporter(ctx, campaignID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return errs.ErrNotSupporting
		}
		if err != nil {
			return storeErr(err, "campaign")
		}
		signed := removed.SupportType == models.SupportSignature
		return storeErr(s.store.Users().RemoveSupport(ctx, userID, campaignID, signed), "user")
	})
}

// ---------------- LIST ----------------

type ListSupportersInput struct {
	CampaignID  primitive.ObjectID
	Page        int
	Limit       int
	SupportType models.SupportType
}

func (s *Supporters) List(ctx context.Context, in ListSupportersInput) ([]models.SupporterView, utils.Pagination, error) {
	if in.SupportType != "" && !in.SupportType.Valid() {
		return nil, utils.Pagination{}, errs.Validation(errs.CodeInvalidInput, "invalid support type %q", in.SupportType)
	}
	c, err := s.store.Campaigns().Get(ctx, in.CampaignID)
	if err != nil {
		return nil, utils.Pagination{}, storeErr(err, "campaign")
	}

	matched := make([]models.Supporter, 0, len(c.Supporters))
	for _, sup := range c.Supporters {
		if in.SupportType == "" || sup.SupportType == in.SupportType {
			matched = append(matched, sup)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].SupportedAt.After(matched[j].SupportedAt)
	})

	page := min(max(in.Page, 1), utils.MaxPage)
	limit := in.Limit
	if limit < 1 {
		limit = utils.DefaultLimit
	}
	limit = min(limit, utils.MaxLimit)
	start := max(min(int(utils.Skip(page, limit)), len(matched)), 0)
	end := min(start+limit, len(matched))
	window := matched[start:end]

	var ids []primitive.ObjectID
	for _, sup := range window {
		if !sup.IsAnonymous {
			ids = append(ids, sup.UserID)
		}
	}
	users, err := s.store.Users().GetMany(ctx, ids)
	if err != nil {
		return nil, utils.Pagination{}, storeErr(err, "users")
	}

	out := make([]models.SupporterView, 0, len(window))
	for _, sup := range window {
		view := models.SupporterView{
			User:        models.AnonymousUser,
			SupportType: sup.SupportType,
			SupportedAt: sup.SupportedAt,
			IsAnonymous: sup.IsAnonymous,
			Message:     sup.Message,
		}
		if !sup.IsAnonymous {
			id := sup.UserID
			view.User = models.PublicUser{ID: &id}
			if u, ok := users[id]; ok {
				view.User.Name = u.Name
				view.User.Avatar = u.Avatar
			}
		}
		out = append(out, view)
	}
	return out, utils.NewPagination(int64(len(matched)), page, limit), nil
}

// ---------------- CHECK ----------------

type SupportStatus struct {
	IsSupporting   bool              `json:"isSupporting"`
	SupportDetails *models.Supporter `json:"supportDetails"`
}

func (s *Supporters) Check(ctx context.Context, campaignID, userID primitive.ObjectID) (*SupportStatus, error) {
	c, err := s.store.Campaigns().Get(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err, "campaign")
	}
	sup := c.Supporter(userID)
	return &SupportStatus{IsSupporting: sup != nil, SupportDetails: sup}, nil
}
