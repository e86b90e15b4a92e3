package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store"
)

// ---------------- TEAMS ----------------

type teams struct{ col *mongo.Collection }

func (r teams) Insert(ctx context.Context, t *models.CampaignTeam) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.AdditionalMembers == nil {
		t.AdditionalMembers = []models.AdditionalMember{}
	}
	_, err := r.col.InsertOne(ctx, t)
	return duplicate(err)
}

func (r teams) GetByCampaign(ctx context.Context, campaignID primitive.ObjectID) (*models.CampaignTeam, error) {
	var t models.CampaignTeam
	if err := r.col.FindOne(ctx, bson.M{"campaign_id": campaignID}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r teams) Update(ctx context.Context, t *models.CampaignTeam) error {
	if t.AdditionalMembers == nil {
		t.AdditionalMembers = []models.AdditionalMember{}
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------------- VICTIMS ----------------

type victims struct{ col *mongo.Collection }

func (r victims) Insert(ctx context.Context, v *models.CampaignVictim) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, v)
	return err
}

func (r victims) Update(ctx context.Context, v *models.CampaignVictim) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r victims) ListByCampaign(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignVictim, error) {
	cursor, err := r.col.Find(ctx, bson.M{"campaign_id": campaignID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []models.CampaignVictim{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r victims) Delete(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (r victims) DeleteByCampaign(ctx context.Context, campaignID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"campaign_id": campaignID})
	return err
}

// ---------------- EVIDENCE ----------------

type evidence struct{ col *mongo.Collection }

func (r evidence) Insert(ctx context.Context, e *models.CampaignEvidence) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r evidence) Get(ctx context.Context, id primitive.ObjectID) (*models.CampaignEvidence, error) {
	var e models.CampaignEvidence
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r evidence) ListByCampaign(ctx context.Context, campaignID primitive.ObjectID) ([]models.CampaignEvidence, error) {
	cursor, err := r.col.Find(ctx, bson.M{"campaign_id": campaignID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []models.CampaignEvidence{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r evidence) CountByCampaign(ctx context.Context, campaignID primitive.ObjectID) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"campaign_id": campaignID})
}

func (r evidence) SetVerification(ctx context.Context, id primitive.ObjectID, v models.Verification, status models.EvidenceStatus) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"verification": v,
		"status":       status,
		"updated_at":   time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------------- USERS ----------------

type users struct{ col *mongo.Collection }

func (r users) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CampaignsSupported == nil {
		u.CampaignsSupported = []primitive.ObjectID{}
	}
	if u.CampaignsSigned == nil {
		u.CampaignsSigned = []primitive.ObjectID{}
	}
	if u.ActivityLog == nil {
		u.ActivityLog = []models.Activity{}
	}
	_, err := r.col.InsertOne(ctx, u)
	return duplicate(err)
}

func (r users) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r users) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1, "avatar": 1}))
	if err != nil {
		return nil, err
	}
	var found []models.User
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func (r users) AddSupport(ctx context.Context, userID, campaignID primitive.ObjectID, signed bool, activity models.Activity) error {
	addToSet := bson.M{"campaigns_supported": campaignID}
	if signed {
		addToSet["campaigns_signed"] = campaignID
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": addToSet,
		"$push":     bson.M{"activity_log": activity},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

func (r users) RemoveSupport(ctx context.Context, userID, campaignID primitive.ObjectID, signed bool) error {
	pull := bson.M{"campaigns_supported": campaignID}
	if signed {
		pull["campaigns_signed"] = campaignID
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": pull,
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}
