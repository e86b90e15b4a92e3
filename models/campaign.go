package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignArchived  CampaignStatus = "archived"
	CampaignRejected  CampaignStatus = "rejected"
)

const (
	StepBasicInfo  = 1
	StepTeam       = 2
	StepVictims    = 3
	StepCompletion = 4
	StepComplete   = 5 // terminal
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignCompleted, CampaignArchived, CampaignRejected:
		return true
	}
	return false
}

type EngagementMetrics struct {
	Supporters     int `bson:"supporters" json:"supporters"`
	SignatureCount int `bson:"signature_count" json:"signatureCount"`
	Views          int `bson:"views" json:"views"`
	Shares         int `bson:"shares" json:"shares"`
	Likes          int `bson:"likes" json:"likes"`
	Comments       int `bson:"comments" json:"comments"`
}

type Campaign struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	ShortDescription string             `bson:"short_description" json:"shortDescription"`
	Category         string             `bson:"category" json:"category"`
	Tags             []string           `bson:"tags" json:"tags"`
	Location         string             `bson:"location,omitempty" json:"location,omitempty"`
	StartDate        *time.Time         `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate          *time.Time         `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Status           CampaignStatus     `bson:"status" json:"status"`
	CreationStep     int                `bson:"creation_step" json:"creationStep"`
	CreationComplete bool               `bson:"creation_complete" json:"creationComplete"`
	HasVictims       bool               `bson:"has_victims" json:"hasVictims"`
	CoverImage       *string            `bson:"cover_image" json:"coverImage"`

	EngagementMetrics EngagementMetrics `bson:"engagement_metrics" json:"engagementMetrics"`

	CreatedBy  primitive.ObjectID   `bson:"created_by" json:"createdBy"`
	Team       *primitive.ObjectID  `bson:"team,omitempty" json:"teamId,omitempty"`
	Victims    []primitive.ObjectID `bson:"victims" json:"victimIds"`
	Evidence   []primitive.ObjectID `bson:"evidence" json:"evidenceIds"`
	Supporters []Supporter          `bson:"supporters" json:"supporters"`

	// Version guards concurrent writes to the aggregate.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasSupporter reports whether userID already backs the campaign.
func (c *Campaign) HasSupporter(userID primitive.ObjectID) bool {
	return c.Supporter(userID) != nil
}

func (c *Campaign) Supporter(userID primitive.ObjectID) *Supporter {
	for i := range c.Supporters {
		if c.Supporters[i].UserID == userID {
			return &c.Supporters[i]
		}
	}
	return nil
}

// CampaignDetail is a campaign with its team, victims and evidence expanded.
type CampaignDetail struct {
	Campaign
	TeamDoc      *CampaignTeam      `json:"team"`
	VictimDocs   []CampaignVictim   `json:"victims"`
	EvidenceDocs []CampaignEvidence `json:"evidence"`
}
