package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is owned by the auth service; this backend only maintains the
// support back-references and activity entries.
type User struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name               string               `bson:"name" json:"name"`
	Email              string               `bson:"email,omitempty" json:"email,omitempty"`
	Avatar             string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role               string               `bson:"role,omitempty" json:"role,omitempty"`
	CampaignsSupported []primitive.ObjectID `bson:"campaigns_supported" json:"campaignsSupported"`
	CampaignsSigned    []primitive.ObjectID `bson:"campaigns_signed" json:"campaignsSigned"`
	ActivityLog        []Activity           `bson:"activity_log" json:"activityLog"`
	CreatedAt          time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updated_at" json:"updatedAt"`
}

type Activity struct {
	Action     string             `bson:"action" json:"action"`
	CampaignID primitive.ObjectID `bson:"campaign_id" json:"campaignId"`
	At         time.Time          `bson:"at" json:"at"`
}

const (
	ActivitySupportedCampaign = "supported_campaign"
	ActivitySignedCampaign    = "signed_campaign"
)
