package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PrivacyLevel string

const (
	PrivacyPublic    PrivacyLevel = "public"
	PrivacyAnonymous PrivacyLevel = "anonymous"
	PrivacyPrivate   PrivacyLevel = "private"
)

func (p PrivacyLevel) Valid() bool {
	return p == PrivacyPublic || p == PrivacyAnonymous || p == PrivacyPrivate
}

type CampaignVictim struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID             primitive.ObjectID `bson:"campaign_id" json:"campaignId"`
	Name                   string             `bson:"name" json:"name"`
	Age                    *int               `bson:"age,omitempty" json:"age,omitempty"`
	Gender                 string             `bson:"gender,omitempty" json:"gender,omitempty"`
	RelationshipToCampaign string             `bson:"relationship_to_campaign,omitempty" json:"relationshipToCampaign,omitempty"`
	ImpactDescription      string             `bson:"impact_description,omitempty" json:"impactDescription,omitempty"`
	PrivacyLevel           PrivacyLevel       `bson:"privacy_level" json:"privacyLevel"`
	HasConsented           bool               `bson:"has_consented" json:"hasConsented"`
	CreatedAt              time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updatedAt"`
}
