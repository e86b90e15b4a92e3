// Package mongostore implements store.Store on MongoDB. Transactions need a
// replica set (a single-node replica set is enough).
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/phillip/civic-go/store"
)

const (
	colCampaigns = "campaigns"
	colTeams     = "campaign_teams"
	colVictims   = "campaign_victims"
	colEvidence  = "campaign_evidence"
	colUsers     = "users"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

func New(client *mongo.Client, dbName string) *Store {
	return &Store{client: client, db: client.Database(dbName)}
}

func (s *Store) Campaigns() store.CampaignRepository { return campaigns{s.db.Collection(colCampaigns)} }
func (s *Store) Teams() store.TeamRepository         { return teams{s.db.Collection(colTeams)} }
func (s *Store) Victims() store.VictimRepository     { return victims{s.db.Collection(colVictims)} }
func (s *Store) Evidence() store.EvidenceRepository  { return evidence{s.db.Collection(colEvidence)} }
func (s *Store) Users() store.UserRepository         { return users{s.db.Collection(colUsers)} }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// WithTransaction runs fn inside a session transaction. The session context
// handed to fn makes every repository call part of the transaction; any
// error aborts it. Calls made while a session is already bound join it.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates the indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colCampaigns: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "created_by", Value: 1}}},
		},
		colTeams: {
			{Keys: bson.D{{Key: "campaign_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colVictims: {
			{Keys: bson.D{{Key: "campaign_id", Value: 1}}},
		},
		colEvidence: {
			{Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for col, idx := range specs {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}
