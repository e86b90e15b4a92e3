package models

import (
	"encoding/json"
	"fmt"
)

// StepPayload is the data submitted for one step of campaign creation.
// Only the four concrete step types below implement it.
type StepPayload interface {
	Step() int
}

type BasicInfoStep struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	ShortDescription *string  `json:"shortDescription"`
	Category         *string  `json:"category"`
	Tags             []string `json:"tags"` // nil leaves tags untouched
	EndDate          *string  `json:"endDate"`
	Location         *string  `json:"location"`
}

func (BasicInfoStep) Step() int { return StepBasicInfo }

type MemberInput struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type AdditionalMemberInput struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	CustomRoleTitle string `json:"customRoleTitle"`
}

type TeamStep struct {
	CoLeader               *MemberInput            `json:"coLeader"`
	SocialMediaCoordinator *MemberInput            `json:"socialMediaCoordinator"`
	VolunteerCoordinator   *MemberInput            `json:"volunteerCoordinator"`
	FinanceManager         *MemberInput            `json:"financeManager"`
	AdditionalMembers      []AdditionalMemberInput `json:"additionalMembers"`
}

func (TeamStep) Step() int { return StepTeam }

type VictimInput struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	Age                    *int         `json:"age"`
	Gender                 string       `json:"gender"`
	RelationshipToCampaign string       `json:"relationshipToCampaign"`
	ImpactDescription      string       `json:"impactDescription"`
	PrivacyLevel           PrivacyLevel `json:"privacyLevel"`
	HasConsented           bool         `json:"hasConsented"`
}

type VictimsStep struct {
	HasVictims bool          `json:"hasVictims"`
	Victims    []VictimInput `json:"victims"`
}

func (VictimsStep) Step() int { return StepVictims }

type CompletionStep struct {
	SkipEvidence bool `json:"skipEvidence"`
	PublishNow   bool `json:"publishNow"`
}

func (CompletionStep) Step() int { return StepCompletion }

// DecodeStepPayload decodes raw into the payload type for step.
// Steps without a payload type yield a nil payload and no error.
func DecodeStepPayload(step int, raw json.RawMessage) (StepPayload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var (
		p   StepPayload
		err error
	)
	switch step {
	case StepBasicInfo:
		var v BasicInfoStep
		err = json.Unmarshal(raw, &v)
		p = v
	case StepTeam:
		var v TeamStep
		err = json.Unmarshal(raw, &v)
		p = v
	case StepVictims:
		var v VictimsStep
		err = json.Unmarshal(raw, &v)
		p = v
	case StepCompletion:
		var v CompletionStep
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid data for step %d: %w", step, err)
	}
	return p, nil
}
