package memstore

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/models"
)

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	return append([]primitive.ObjectID(nil), ids...)
}

func cloneIDPtr(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneCampaign(c models.Campaign) models.Campaign {
	c.Tags = append([]string(nil), c.Tags...)
	c.Victims = cloneIDs(c.Victims)
	c.Evidence = cloneIDs(c.Evidence)
	c.Supporters = append([]models.Supporter(nil), c.Supporters...)
	c.Team = cloneIDPtr(c.Team)
	if c.CoverImage != nil {
		v := *c.CoverImage
		c.CoverImage = &v
	}
	if c.StartDate != nil {
		v := *c.StartDate
		c.StartDate = &v
	}
	if c.EndDate != nil {
		v := *c.EndDate
		c.EndDate = &v
	}
	return c
}

func cloneMember(m *models.TeamMember) *models.TeamMember {
	if m == nil {
		return nil
	}
	out := *m
	out.UserID = cloneIDPtr(m.UserID)
	if m.InvitedAt != nil {
		v := *m.InvitedAt
		out.InvitedAt = &v
	}
	return &out
}

func cloneTeam(t models.CampaignTeam) models.CampaignTeam {
	t.Leader = cloneMember(t.Leader)
	t.CoLeader = cloneMember(t.CoLeader)
	t.SocialMediaCoordinator = cloneMember(t.SocialMediaCoordinator)
	t.VolunteerCoordinator = cloneMember(t.VolunteerCoordinator)
	t.FinanceManager = cloneMember(t.FinanceManager)
	if t.AdditionalMembers != nil {
		members := make([]models.AdditionalMember, len(t.AdditionalMembers))
		for i, m := range t.AdditionalMembers {
			m.UserID = cloneIDPtr(m.UserID)
			if m.InvitedAt != nil {
				v := *m.InvitedAt
				m.InvitedAt = &v
			}
			members[i] = m
		}
		t.AdditionalMembers = members
	}
	return t
}

func cloneVictim(v models.CampaignVictim) models.CampaignVictim {
	if v.Age != nil {
		a := *v.Age
		v.Age = &a
	}
	return v
}

func cloneEvidence(e models.CampaignEvidence) models.CampaignEvidence {
	if e.MediaFile != nil {
		m := *e.MediaFile
		if m.Dimensions != nil {
			d := *m.Dimensions
			m.Dimensions = &d
		}
		if m.Duration != nil {
			d := *m.Duration
			m.Duration = &d
		}
		e.MediaFile = &m
	}
	if e.Verification != nil {
		v := *e.Verification
		e.Verification = &v
	}
	if e.DateCollected != nil {
		d := *e.DateCollected
		e.DateCollected = &d
	}
	return e
}

func cloneUser(u models.User) models.User {
	u.CampaignsSupported = cloneIDs(u.CampaignsSupported)
	u.CampaignsSigned = cloneIDs(u.CampaignsSigned)
	u.ActivityLog = append([]models.Activity(nil), u.ActivityLog...)
	return u
}
