package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SupportType string

const (
	SupportSignature     SupportType = "signature"
	SupportVolunteer     SupportType = "volunteer"
	SupportShare         SupportType = "share"
	SupportDonation      SupportType = "donation"
	SupportParticipation SupportType = "participation"
)

func (t SupportType) Valid() bool {
	switch t {
	case SupportSignature, SupportVolunteer, SupportShare, SupportDonation, SupportParticipation:
		return true
	}
	return false
}

// Supporter is embedded in Campaign.Supporters; one per user.
type Supporter struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	SupportType SupportType        `bson:"support_type" json:"supportType"`
	SupportedAt time.Time          `bson:"supported_at" json:"supportedAt"`
	IsAnonymous bool               `bson:"is_anonymous" json:"isAnonymous"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
}

// PublicUser is the identity joined into supporter listings.
type PublicUser struct {
	ID     *primitive.ObjectID `json:"id,omitempty"`
	Name   string              `json:"name"`
	Avatar string              `json:"avatar,omitempty"`
}

// AnonymousUser replaces the identity of anonymous supporters.
var AnonymousUser = PublicUser{Name: "Anonymous"}

type SupporterView struct {
	User        PublicUser  `json:"user"`
	SupportType SupportType `json:"supportType"`
	SupportedAt time.Time   `json:"supportedAt"`
	IsAnonymous bool        `json:"isAnonymous"`
	Message     string      `json:"message,omitempty"`
}
