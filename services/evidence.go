package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/store"
)

const (
	MaxEvidenceFiles    = 5
	MaxEvidenceFileSize = 10 << 20
)

type Evidence struct {
	store   store.Store
	uploads Uploader
	queue   Enqueuer
	logger  *slog.Logger
}

type EvidenceMeta struct {
	Title              string
	Description        string
	Source             models.EvidenceSource
	EvidenceType       models.EvidenceType
	DateCollected      *time.Time
	TestimonialContent string
	IsPublic           bool
}

type SubmitEvidenceInput struct {
	CampaignID primitive.ObjectID
	ActorID    primitive.ObjectID
	Meta       EvidenceMeta
	Files      []storage.UploadFile
}

func (m *EvidenceMeta) validate(files int) error {
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	m.TestimonialContent = strings.TrimSpace(m.TestimonialContent)
	if m.Title == "" || m.Description == "" || m.Source == "" || m.EvidenceType == "" {
		return errs.Validation(errs.CodeMissingFields, "title, description, source and evidenceType are required")
	}
	if !m.Source.Valid() {
		return errs.Validation(errs.CodeInvalidInput, "invalid evidence source %q", m.Source)
	}
	if !m.EvidenceType.Valid() {
		return errs.Validation(errs.CodeInvalidInput, "invalid evidence type %q", m.EvidenceType)
	}
	if m.EvidenceType == models.EvidenceTestimonial {
		if m.TestimonialContent == "" {
			return errs.Validation(errs.CodeMissingFields, "testimonialContent is required for testimonial evidence")
		}
		if files > 0 {
			return errs.Validation(errs.CodeInvalidInput, "testimonial evidence cannot include files")
		}
		return nil
	}
	if files == 0 {
		return errs.Validation(errs.CodeMissingFields, "at least one file is required")
	}
	if files > MaxEvidenceFiles {
		return errs.Validation(errs.CodeInvalidInput, "at most %d files can be uploaded at once", MaxEvidenceFiles)
	}
	return nil
}

// ---------------- SUBMIT ----------------

// Submit stores evidence for a campaign. Files are uploaded concurrently and
// fail independently: the records that made it are returned. Validation is
// queued and never awaited.
func (s *Evidence) Submit(ctx context.Context, in SubmitEvidenceInput) ([]models.CampaignEvidence, error) {
	if _, err := loadContributor(ctx, s.store, in.CampaignID, in.ActorID); err != nil {
		return nil, err
	}
	if err := in.Meta.validate(len(in.Files)); err != nil {
		return nil, err
	}
	for _, f := range in.Files {
		if f.Size > MaxEvidenceFileSize {
			return nil, errs.Validation(errs.CodeInvalidInput, "file %q exceeds the 10MB limit", f.FileName)
		}
	}

	if in.Meta.EvidenceType == models.EvidenceTestimonial {
		ev := s.newEvidence(in)
		ev.TestimonialContent = in.Meta.TestimonialContent
		if err := s.persist(ctx, ev); err != nil {
			s.logger.Error("save testimonial failed", "user_id", in.ActorID.Hex(), "campaign_id", in.CampaignID.Hex(), "error", err)
			return nil, storeErr(err, "evidence")
		}
		return []models.CampaignEvidence{*ev}, nil
	}

	created := make([]*models.CampaignEvidence, len(in.Files))
	failures := make([]error, len(in.Files))

	var g errgroup.Group
	g.SetLimit(MaxEvidenceFiles)
	for i, f := range in.Files {
		i, f := i, f
		g.Go(func() error {
			ev, err := s.submitFile(ctx, in, f)
			if err != nil {
				s.logger.Error("evidence file failed",
					"user_id", in.ActorID.Hex(),
					"campaign_id", in.CampaignID.Hex(),
					"file", f.FileName,
					"error", err,
				)
				failures[i] = err
				return nil
			}
			created[i] = ev
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.CampaignEvidence, 0, len(created))
	for _, ev := range created {
		if ev != nil {
			out = append(out, *ev)
		}
	}
	if len(out) == 0 {
		return nil, errs.Wrap(errs.KindExternal, errs.CodeStorageFailed, "failed to store evidence files", errors.Join(failures...))
	}
	return out, nil
}

func (s *Evidence) submitFile(ctx context.Context, in SubmitEvidenceInput, f storage.UploadFile) (*models.CampaignEvidence, error) {
	res, err := s.uploads.UploadEvidence(ctx, in.Meta.EvidenceType, f)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	ev := s.newEvidence(in)
	ev.MediaFile = &models.MediaFile{
		URL:      res.URL,
		FileName: f.FileName,
		FileSize: f.Size,
		FileType: f.ContentType,
		Provider: res.Provider,
	}
	if res.Bytes > 0 {
		ev.MediaFile.FileSize = res.Bytes
	}
	if res.Width > 0 && res.Height > 0 {
		ev.MediaFile.Dimensions = &models.Dimensions{Width: res.Width, Height: res.Height}
	}
	if err := s.persist(ctx, ev); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return ev, nil
}

func (s *Evidence) newEvidence(in SubmitEvidenceInput) *models.CampaignEvidence {
	now := time.Now()
	return &models.CampaignEvidence{
		ID:            primitive.NewObjectID(),
		CampaignID:    in.CampaignID,
		SubmittedBy:   in.ActorID,
		Title:         in.Meta.Title,
		Description:   in.Meta.Description,
		EvidenceType:  in.Meta.EvidenceType,
		Source:        in.Meta.Source,
		DateCollected: in.Meta.DateCollected,
		Status:        models.EvidencePending,
		Permissions:   models.EvidencePermissions{IsPublic: in.Meta.IsPublic},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// persist saves the record and links it to the campaign, which moves to at
// least the victims step. Validation is queued once both writes commit.
func (s *Evidence) persist(ctx context.Context, ev *models.CampaignEvidence) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Evidence().Insert(ctx, ev); err != nil {
			return err
		}
		return s.store.Campaigns().AppendEvidence(ctx, ev.CampaignID, ev.ID, models.StepVictims)
	})
	if err != nil {
		return err
	}
	if s.queue != nil {
		s.queue.Enqueue(ev.ID)
	}
	return nil
}

// ---------------- LIST ----------------

// List returns a campaign's evidence, newest first.
func (s *Evidence) List(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignEvidence, error) {
	if _, err := s.store.Campaigns().Get(ctx, campaignID); err != nil {
		return nil, storeErr(err, "campaign")
	}
	out, err := s.store.Evidence().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err, "evidence")
	}
	return out, nil
}
