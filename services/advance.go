package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store"
	"github.com/phillip/civic-go/utils"
)

type AdvanceInput struct {
	CampaignID primitive.ObjectID
	ActorID    primitive.ObjectID
	Step       int
	Payload    models.StepPayload
	// Version, when set, must match the stored campaign version.
	Version *int64
}

// Advance applies one creation step. Every read and write runs in a single
// transaction; a failure leaves the campaign and its team and victims as
// they were.
func (s *Campaigns) Advance(ctx context.Context, in AdvanceInput) (*models.CampaignDetail, error) {
	var detail *models.CampaignDetail
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.store.Campaigns().Get(ctx, in.CampaignID)
		if err != nil {
			return storeErr(err, "campaign")
		}
		if c.CreatedBy != in.ActorID {
			return errs.ErrUnauthorized
		}
		if in.Version != nil && *in.Version != c.Version {
			return errs.ErrConflict
		}
		if in.Step != c.CreationStep && in.Step != models.StepBasicInfo {
			return errs.Validation(errs.CodeInvalidStepSequence,
				"invalid step sequence: requested step %d but campaign is at step %d", in.Step, c.CreationStep)
		}
		if in.Payload == nil || in.Payload.Step() != in.Step {
			return errs.Validation(errs.CodeInvalidStep, "invalid step %d", in.Step)
		}

		now := time.Now()
		switch p := in.Payload.(type) {
		case models.BasicInfoStep:
			err = applyBasicInfo(c, p)
		case models.TeamStep:
			err = s.applyTeam(ctx, c, p, now)
		case models.VictimsStep:
			err = s.applyVictims(ctx, c, p, now)
		case models.CompletionStep:
			err = s.applyCompletion(ctx, c, p)
		default:
			err = errs.Validation(errs.CodeInvalidStep, "invalid step %d", in.Step)
		}
		if err != nil {
			return err
		}

		c.UpdatedAt = now
		if err := s.store.Campaigns().Update(ctx, c); err != nil {
			return storeErr(err, "campaign")
		}
		detail, err = s.populate(ctx, c)
		return err
	})
	if err != nil {
		var e *errs.Error
		if !errors.As(err, &e) {
			err = errs.Wrap(errs.KindInternal, errs.CodeTransactionAborted, "transaction aborted", err)
		}
		if errs.HTTPStatus(err) >= 500 {
			s.logger.Error("advance campaign failed",
				"user_id", in.ActorID.Hex(), "campaign_id", in.CampaignID.Hex(), "step", in.Step, "error", err)
		}
		return nil, err
	}
	return detail, nil
}

// ---------------- STEP 1: BASIC INFO ----------------

func applyBasicInfo(c *models.Campaign, p models.BasicInfoStep) error {
	required := []struct {
		name string
		in   *string
		dst  *string
	}{
		{"title", p.Title, &c.Title},
		{"description", p.Description, &c.Description},
		{"shortDescription", p.ShortDescription, &c.ShortDescription},
		{"category", p.Category, &c.Category},
	}
	for _, f := range required {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			return errs.Validation(errs.CodeMissingFields, "%s cannot be empty", f.name)
		}
		*f.dst = v
	}
	if p.Location != nil {
		c.Location = strings.TrimSpace(*p.Location)
	}
	if p.Tags != nil {
		c.Tags = cleanTags(p.Tags)
	}
	if p.EndDate != nil {
		if strings.TrimSpace(*p.EndDate) == "" {
			c.EndDate = nil
		} else {
			t, err := utils.ParseDate(*p.EndDate)
			if err != nil {
				return errs.Validation(errs.CodeInvalidInput, "%s", err.Error())
			}
			c.EndDate = &t
		}
	}
	c.CreationStep = models.StepTeam
	return nil
}

// ---------------- STEP 2: TEAM ----------------

func (s *Campaigns) applyTeam(ctx context.Context, c *models.Campaign, p models.TeamStep, now time.Time) error {
	if c.Team == nil {
		return errs.ErrTeamNotInitialized
	}
	team, err := s.store.Teams().GetByCampaign(ctx, c.ID)
	if errors.Is(err, store.ErrNotFound) {
		return errs.ErrTeamNotInitialized
	}
	if err != nil {
		return storeErr(err, "team")
	}

	roles := []struct {
		slot **models.TeamMember
		in   *models.MemberInput
		name string
	}{
		{&team.CoLeader, p.CoLeader, "coLeader"},
		{&team.SocialMediaCoordinator, p.SocialMediaCoordinator, "socialMediaCoordinator"},
		{&team.VolunteerCoordinator, p.VolunteerCoordinator, "volunteerCoordinator"},
		{&team.FinanceManager, p.FinanceManager, "financeManager"},
	}
	for _, r := range roles {
		if err := reconcileRole(r.slot, r.in, r.name, now); err != nil {
			return err
		}
	}
	for _, in := range p.AdditionalMembers {
		if err := reconcileAdditional(team, in, now); err != nil {
			return err
		}
	}

	team.UpdatedAt = now
	if err := s.store.Teams().Update(ctx, team); err != nil {
		return storeErr(err, "team")
	}
	c.CreationStep = models.StepVictims
	return nil
}

// reconcileRole applies one named role. A new user id is a new invitation;
// a role sent with neither user id nor name is cleared.
func reconcileRole(slot **models.TeamMember, in *models.MemberInput, role string, now time.Time) error {
	if in == nil {
		return nil
	}
	uid, err := optionalID(in.UserID, role+" user")
	if err != nil {
		return err
	}
	name := strings.TrimSpace(in.Name)
	if uid == nil && name == "" {
		*slot = nil
		return nil
	}

	m := *slot
	if m == nil {
		m = &models.TeamMember{}
	}
	if !sameID(m.UserID, uid) {
		m.UserID = uid
		m.Name = name
		m.AcceptedInvite = false
		m.InvitedAt = nil
		if uid != nil {
			invited := now
			m.InvitedAt = &invited
		}
	} else if name != "" {
		m.Name = name
	}
	*slot = m
	return nil
}

func reconcileAdditional(team *models.CampaignTeam, in models.AdditionalMemberInput, now time.Time) error {
	uid, err := optionalID(in.UserID, "team member user")
	if err != nil {
		return err
	}
	var id *primitive.ObjectID
	if parsed, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ID)); err == nil {
		id = &parsed
	}

	for i := range team.AdditionalMembers {
		m := &team.AdditionalMembers[i]
		if (id != nil && m.ID == *id) || (uid != nil && sameID(m.UserID, uid)) {
			if uid != nil && !sameID(m.UserID, uid) {
				invited := now
				m.UserID = uid
				m.InvitedAt = &invited
				m.AcceptedInvite = false
			}
			mergeString(&m.Name, in.Name)
			mergeString(&m.Email, in.Email)
			mergeString(&m.Role, in.Role)
			mergeString(&m.CustomRoleTitle, in.CustomRoleTitle)
			return nil
		}
	}

	if uid == nil && strings.TrimSpace(in.Name) == "" && strings.TrimSpace(in.Email) == "" {
		return errs.Validation(errs.CodeInvalidInput, "additional team members need a userId, name or email")
	}
	invited := now
	m := models.AdditionalMember{
		ID:             primitive.NewObjectID(),
		UserID:         uid,
		InvitedAt:      &invited,
		AcceptedInvite: false,
	}
	if id != nil {
		m.ID = *id
	}
	mergeString(&m.Name, in.Name)
	mergeString(&m.Email, in.Email)
	mergeString(&m.Role, in.Role)
	mergeString(&m.CustomRoleTitle, in.CustomRoleTitle)
	team.AdditionalMembers = append(team.AdditionalMembers, m)
	return nil
}

func mergeString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// ---------------- STEP 3: VICTIMS ----------------

func (s *Campaigns) applyVictims(ctx context.Context, c *models.Campaign, p models.VictimsStep, now time.Time) error {
	existing, err := s.store.Victims().ListByCampaign(ctx, c.ID)
	if err != nil {
		return storeErr(err, "victims")
	}
	c.HasVictims = p.HasVictims

	if !p.HasVictims {
		if err := s.store.Victims().DeleteByCampaign(ctx, c.ID); err != nil {
			return storeErr(err, "victims")
		}
		c.Victims = []primitive.ObjectID{}
		c.CreationStep = models.StepCompletion
		return nil
	}

	byID := make(map[primitive.ObjectID]models.CampaignVictim, len(existing))
	for _, v := range existing {
		byID[v.ID] = v
	}

	kept := make(map[primitive.ObjectID]bool, len(p.Victims))
	ids := make([]primitive.ObjectID, 0, len(p.Victims))
	for _, in := range p.Victims {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return errs.Validation(errs.CodeMissingFields, "victim name is required")
		}
		if !in.HasConsented {
			return errs.Validation(errs.CodeInvalidInput, "victim %q has not consented", name)
		}
		if in.Age != nil && *in.Age < 0 {
			return errs.Validation(errs.CodeInvalidInput, "victim age cannot be negative")
		}
		privacy := in.PrivacyLevel
		if privacy == "" {
			privacy = models.PrivacyAnonymous
		}
		if !privacy.Valid() {
			return errs.Validation(errs.CodeInvalidInput, "invalid privacy level %q", in.PrivacyLevel)
		}

		v := models.CampaignVictim{CampaignID: c.ID, CreatedAt: now}
		id, parseErr := primitive.ObjectIDFromHex(strings.TrimSpace(in.ID))
		prev, found := byID[id]
		if parseErr == nil && found && !kept[id] {
			v = prev
		}
		v.Name = name
		v.Age = in.Age
		v.Gender = strings.TrimSpace(in.Gender)
		v.RelationshipToCampaign = strings.TrimSpace(in.RelationshipToCampaign)
		v.ImpactDescription = strings.TrimSpace(in.ImpactDescription)
		v.PrivacyLevel = privacy
		v.HasConsented = true
		v.UpdatedAt = now

		if v.ID.IsZero() {
			err = s.store.Victims().Insert(ctx, &v)
		} else {
			err = s.store.Victims().Update(ctx, &v)
		}
		if err != nil {
			return storeErr(err, "victim")
		}
		kept[v.ID] = true
		ids = append(ids, v.ID)
	}

	var stale []primitive.ObjectID
	for _, v := range existing {
		if !kept[v.ID] {
			stale = append(stale, v.ID)
		}
	}
	if err := s.store.Victims().Delete(ctx, stale); err != nil {
		return storeErr(err, "victims")
	}

	c.Victims = ids
	c.CreationStep = models.StepCompletion
	return nil
}

// ---------------- STEP 4: COMPLETION ----------------

func (s *Campaigns) applyCompletion(ctx context.Context, c *models.Campaign, p models.CompletionStep) error {
	n, err := s.store.Evidence().CountByCampaign(ctx, c.ID)
	if err != nil {
		return storeErr(err, "evidence")
	}
	if n == 0 && !p.SkipEvidence {
		return errs.ErrEvidenceRequired
	}

	c.CreationComplete = true
	if p.PublishNow {
		c.Status = models.CampaignActive
		c.EngagementMetrics.Views = 0
		// Publishing restarts the counter from the live supporter list rather
		// than a literal zero: drafts can already hold supporters, and the
		// counter must always equal len(c.Supporters).
		c.EngagementMetrics.Supporters = len(c.Supporters)
	}
	c.CreationStep = models.StepComplete
	return nil
}
