package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeStepPayload(t *testing.T) {
	p, err := DecodeStepPayload(1, json.RawMessage(`{"title":"Save the Park","tags":[" parks ",""]}`))
	require.NoError(t, err)
	basic, ok := p.(BasicInfoStep)
	require.True(t, ok)
	require.NotNil(t, basic.Title)
	assert.Equal(t, "Save the Park", *basic.Title)
	assert.Nil(t, basic.Description)
	assert.Equal(t, []string{" parks ", ""}, basic.Tags)

	p, err = DecodeStepPayload(2, json.RawMessage(`{"coLeader":{"userId":"u2"}}`))
	require.NoError(t, err)
	team := p.(TeamStep)
	require.NotNil(t, team.CoLeader)
	assert.Nil(t, team.FinanceManager)

	p, err = DecodeStepPayload(4, nil)
	require.NoError(t, err)
	assert.Equal(t, CompletionStep{}, p)
}

func TestDecodeStepPayload_UnknownStep(t *testing.T) {
	p, err := DecodeStepPayload(9, json.RawMessage(`{"x":1}`))
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestDecodeStepPayload_BadJSON(t *testing.T) {
	_, err := DecodeStepPayload(3, json.RawMessage(`{"hasVictims":"yes"}`))
	assert.Error(t, err)
}

func TestCampaignTeam_IsAcceptedMember(t *testing.T) {
	creator := newID()
	pending := newID()
	extra := newID()
	team := &CampaignTeam{
		Leader:   &TeamMember{UserID: &creator, AcceptedInvite: true},
		CoLeader: &TeamMember{UserID: &pending},
		AdditionalMembers: []AdditionalMember{
			{UserID: &extra, AcceptedInvite: true},
		},
	}
	assert.True(t, team.IsAcceptedMember(creator))
	assert.False(t, team.IsAcceptedMember(pending))
	assert.True(t, team.IsAcceptedMember(extra))
	assert.True(t, team.CoLeader.Pending())

	var nilTeam *CampaignTeam
	assert.False(t, nilTeam.IsAcceptedMember(creator))
}

func newID() primitive.ObjectID { return primitive.NewObjectID() }
