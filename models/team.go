package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamMember struct {
	UserID         *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	Name           string              `bson:"name,omitempty" json:"name,omitempty"`
	InvitedAt      *time.Time          `bson:"invited_at,omitempty" json:"invitedAt,omitempty"`
	AcceptedInvite bool                `bson:"accepted_invite" json:"acceptedInvite"`
}

// Pending reports an invitation that has not been accepted yet.
func (m *TeamMember) Pending() bool {
	return m != nil && m.UserID != nil && !m.AcceptedInvite
}

type AdditionalMember struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	UserID          *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	Name            string              `bson:"name,omitempty" json:"name,omitempty"`
	Email           string              `bson:"email,omitempty" json:"email,omitempty"`
	Role            string              `bson:"role,omitempty" json:"role,omitempty"`
	CustomRoleTitle string              `bson:"custom_role_title,omitempty" json:"customRoleTitle,omitempty"`
	InvitedAt       *time.Time          `bson:"invited_at,omitempty" json:"invitedAt,omitempty"`
	AcceptedInvite  bool                `bson:"accepted_invite" json:"acceptedInvite"`
}

type CampaignTeam struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID             primitive.ObjectID `bson:"campaign_id" json:"campaignId"`
	Leader                 *TeamMember        `bson:"leader,omitempty" json:"leader,omitempty"`
	CoLeader               *TeamMember        `bson:"co_leader,omitempty" json:"coLeader,omitempty"`
	SocialMediaCoordinator *TeamMember        `bson:"social_media_coordinator,omitempty" json:"socialMediaCoordinator,omitempty"`
	VolunteerCoordinator   *TeamMember        `bson:"volunteer_coordinator,omitempty" json:"volunteerCoordinator,omitempty"`
	FinanceManager         *TeamMember        `bson:"finance_manager,omitempty" json:"financeManager,omitempty"`
	AdditionalMembers      []AdditionalMember `bson:"additional_members" json:"additionalMembers"`
	CreatedAt              time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updatedAt"`
}

// NamedRoles returns the five fixed role slots, leader first.
func (t *CampaignTeam) NamedRoles() []*TeamMember {
	return []*TeamMember{t.Leader, t.CoLeader, t.SocialMediaCoordinator, t.VolunteerCoordinator, t.FinanceManager}
}

// IsAcceptedMember reports whether userID holds an accepted seat on the team.
func (t *CampaignTeam) IsAcceptedMember(userID primitive.ObjectID) bool {
	if t == nil {
		return false
	}
	for _, m := range t.NamedRoles() {
		if m != nil && m.UserID != nil && *m.UserID == userID && m.AcceptedInvite {
			return true
		}
	}
	for _, m := range t.AdditionalMembers {
		if m.UserID != nil && *m.UserID == userID && m.AcceptedInvite {
			return true
		}
	}
	return false
}
