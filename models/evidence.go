package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EvidenceType string

const (
	EvidencePhoto          EvidenceType = "photo"
	EvidenceVideo          EvidenceType = "video"
	EvidenceDocument       EvidenceType = "document"
	EvidenceAudio          EvidenceType = "audio"
	EvidenceTestimonial    EvidenceType = "testimonial"
	EvidenceOfficialRecord EvidenceType = "official_record"
	EvidenceNewsArticle    EvidenceType = "news_article"
	EvidenceSocialMedia    EvidenceType = "social_media"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidencePhoto, EvidenceVideo, EvidenceDocument, EvidenceAudio, EvidenceTestimonial,
		EvidenceOfficialRecord, EvidenceNewsArticle, EvidenceSocialMedia:
		return true
	}
	return false
}

// IsImage reports whether the evidence goes to the image-optimized provider.
func (t EvidenceType) IsImage() bool {
	return t == EvidencePhoto || t == "image"
}

type EvidenceSource string

const (
	SourcePersonal     EvidenceSource = "personal"
	SourceWitness      EvidenceSource = "witness"
	SourceMedia        EvidenceSource = "media"
	SourceOfficial     EvidenceSource = "official"
	SourceOrganization EvidenceSource = "organization"
	SourceSocialMedia  EvidenceSource = "social_media"
	SourceOther        EvidenceSource = "other"
)

func (s EvidenceSource) Valid() bool {
	switch s {
	case SourcePersonal, SourceWitness, SourceMedia, SourceOfficial, SourceOrganization, SourceSocialMedia, SourceOther:
		return true
	}
	return false
}

type EvidenceStatus string

const (
	EvidencePending     EvidenceStatus = "pending_verification"
	EvidenceUnderReview EvidenceStatus = "under_review"
	EvidenceAccepted    EvidenceStatus = "accepted"
	EvidenceRejected    EvidenceStatus = "rejected"
)

type Dimensions struct {
	Width  int `bson:"width" json:"width"`
	Height int `bson:"height" json:"height"`
}

type MediaFile struct {
	URL        string      `bson:"url" json:"url"`
	FileName   string      `bson:"file_name" json:"fileName"`
	FileSize   int64       `bson:"file_size" json:"fileSize"`
	FileType   string      `bson:"file_type" json:"fileType"`
	Provider   string      `bson:"provider,omitempty" json:"provider,omitempty"`
	Dimensions *Dimensions `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Duration   *float64    `bson:"duration,omitempty" json:"duration,omitempty"`
}

type Verification struct {
	IsVerified      bool      `bson:"is_verified" json:"isVerified"`
	Method          string    `bson:"method" json:"method"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	ConfidenceScore float64   `bson:"confidence_score" json:"confidenceScore"`
	Date            time.Time `bson:"date" json:"date"`
}

type EvidencePermissions struct {
	IsPublic bool `bson:"is_public" json:"isPublic"`
}

type CampaignEvidence struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CampaignID         primitive.ObjectID  `bson:"campaign_id" json:"campaignId"`
	SubmittedBy        primitive.ObjectID  `bson:"submitted_by" json:"submittedBy"`
	Title              string              `bson:"title" json:"title"`
	Description        string              `bson:"description" json:"description"`
	EvidenceType       EvidenceType        `bson:"evidence_type" json:"evidenceType"`
	Source             EvidenceSource      `bson:"source" json:"source"`
	DateCollected      *time.Time          `bson:"date_collected,omitempty" json:"dateCollected,omitempty"`
	Status             EvidenceStatus      `bson:"status" json:"status"`
	MediaFile          *MediaFile          `bson:"media_file,omitempty" json:"mediaFile,omitempty"`
	TestimonialContent string              `bson:"testimonial_content,omitempty" json:"testimonialContent,omitempty"`
	Verification       *Verification       `bson:"verification,omitempty" json:"verification,omitempty"`
	Permissions        EvidencePermissions `bson:"permissions" json:"permissions"`
	CreatedAt          time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updated_at" json:"updatedAt"`
}
