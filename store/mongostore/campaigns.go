package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store"
)

type campaigns struct{ col *mongo.Collection }

// ---------------- CREATE ----------------
func (r campaigns) Insert(ctx context.Context, c *models.Campaign) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Victims == nil {
		c.Victims = []primitive.ObjectID{}
	}
	if c.Evidence == nil {
		c.Evidence = []primitive.ObjectID{}
	}
	if c.Supporters == nil {
		c.Supporters = []models.Supporter{}
	}
	_, err := r.col.InsertOne(ctx, c)
	return duplicate(err)
}

// ---------------- GET ----------------
func (r campaigns) Get(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ---------------- UPDATE ----------------
func (r campaigns) Update(ctx context.Context, c *models.Campaign) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	victims := c.Victims
	if victims == nil {
		victims = []primitive.ObjectID{}
	}
	set := bson.M{
		"title":                              c.Title,
		"description":                        c.Description,
		"short_description":                  c.ShortDescription,
		"category":                           c.Category,
		"tags":                               tags,
		"location":                           c.Location,
		"start_date":                         c.StartDate,
		"end_date":                           c.EndDate,
		"status":                             c.Status,
		"creation_step":                      c.CreationStep,
		"creation_complete":                  c.CreationComplete,
		"has_victims":                        c.HasVictims,
		"team":                               c.Team,
		"victims":                            victims,
		"engagement_metrics.supporters":      c.EngagementMetrics.Supporters,
		"engagement_metrics.signature_count": c.EngagementMetrics.SignatureCount,
		"engagement_metrics.views":           c.EngagementMetrics.Views,
		"updated_at":                         c.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": c.ID, "version": c.Version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if n, err := r.col.CountDocuments(ctx, bson.M{"_id": c.ID}); err == nil && n == 0 {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}
	c.Version++
	return nil
}

// ---------------- LIST ----------------
func (r campaigns) List(ctx context.Context, q store.CampaignQuery) ([]models.Campaign, int64, error) {
	filter := bson.M{}
	if q.CreatedBy != nil {
		filter["created_by"] = *q.CreatedBy
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Location != "" {
		filter["location"] = bson.M{"$regex": regexp.QuoteMeta(q.Location), "$options": "i"}
	}
	if q.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"short_description": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(sortFor(q.Sort))
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Campaign{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func sortFor(by string) bson.D {
	switch by {
	case "oldest":
		return bson.D{{Key: "created_at", Value: 1}}
	case "popular":
		return bson.D{{Key: "engagement_metrics.supporters", Value: -1}, {Key: "created_at", Value: -1}}
	case "ending_soon":
		return bson.D{{Key: "end_date", Value: 1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// ---------------- EVIDENCE / COVER / VIEWS ----------------
func (r campaigns) AppendEvidence(ctx context.Context, campaignID, evidenceID primitive.ObjectID, minStep int) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": campaignID}, bson.M{
		"$addToSet": bson.M{"evidence": evidenceID},
		"$max":      bson.M{"creation_step": minStep},
		"$set":      bson.M{"updated_at": time.Now()},
		"$inc":      bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r campaigns) SetCoverImage(ctx context.Context, campaignID primitive.ObjectID, url string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": campaignID}, bson.M{
		"$set": bson.M{"cover_image": url, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r campaigns) IncrementViews(ctx context.Context, campaignID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": campaignID}, bson.M{
		"$inc": bson.M{"engagement_metrics.views": 1},
	})
	return err
}

// ---------------- SUPPORTERS ----------------

// AddSupporter pushes only when no element carries the user id, so two
// concurrent requests for the same user cannot both insert.
func (r campaigns) AddSupporter(ctx context.Context, campaignID primitive.ObjectID, s models.Supporter) error {
	inc := bson.M{"engagement_metrics.supporters": 1, "version": 1}
	if s.SupportType == models.SupportSignature {
		inc["engagement_metrics.signature_count"] = 1
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": campaignID, "supporters.user_id": bson.M{"$ne": s.UserID}},
		bson.M{"$push": bson.M{"supporters": s}, "$inc": inc},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": campaignID})
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrDuplicate
	}
	return nil
}

func (r campaigns) RemoveSupporter(ctx context.Context, campaignID, userID primitive.ObjectID) (*models.Supporter, error) {
	var doc struct {
		Supporters []models.Supporter `bson:"supporters"`
	}
	err := r.col.FindOne(ctx,
		bson.M{"_id": campaignID},
		options.FindOne().SetProjection(bson.M{"supporters": bson.M{"$elemMatch": bson.M{"user_id": userID}}}),
	).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	if len(doc.Supporters) == 0 {
		return nil, store.ErrNotFound
	}
	removed := doc.Supporters[0]

	floorDec := func(field string) bson.M {
		return bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$" + field, 1}}}}
	}
	set := bson.M{
		"supporters": bson.M{"$filter": bson.M{
			"input": "$supporters",
			"cond":  bson.M{"$ne": bson.A{"$$this.user_id", userID}},
		}},
		"engagement_metrics.supporters": floorDec("engagement_metrics.supporters"),
		"version":                       bson.M{"$add": bson.A{"$version", 1}},
	}
	if removed.SupportType == models.SupportSignature {
		set["engagement_metrics.signature_count"] = floorDec("engagement_metrics.signature_count")
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": campaignID, "supporters.user_id": userID},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return &removed, nil
}
