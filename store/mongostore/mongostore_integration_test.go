//go:build integration

package mongostore_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store"
	"github.com/phillip/civic-go/store/mongostore"
)

// setupMongo starts a single-node replica set so transactions are available.
func setupMongo(t *testing.T) *mongostore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	_, _, err = container.Exec(ctx, []string{"mongosh", "--quiet", "--eval", "rs.initiate()"}, tcexec.Multiplexed())
	require.NoError(t, err)

	deadline := time.Now().Add(30 * time.Second)
	for {
		_, out, err := container.Exec(ctx, []string{"mongosh", "--quiet", "--eval", "db.hello().isWritablePrimary"}, tcexec.Multiplexed())
		if err == nil {
			b, _ := io.ReadAll(out)
			if strings.Contains(string(b), "true") {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("replica set did not elect a primary")
		}
		time.Sleep(500 * time.Millisecond)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := mongostore.New(client, "civic_test")
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func TestMongoStore_TransactionRollback(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()

	c := &models.Campaign{Title: "Save the Park", Status: models.CampaignDraft, CreationStep: 1, CreatedBy: primitive.NewObjectID(), CreatedAt: time.Now()}
	require.NoError(t, s.Campaigns().Insert(ctx, c))

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		got, err := s.Campaigns().Get(ctx, c.ID)
		if err != nil {
			return err
		}
		got.CreationStep = 4
		if err := s.Campaigns().Update(ctx, got); err != nil {
			return err
		}
		if err := s.Victims().Insert(ctx, &models.CampaignVictim{CampaignID: c.ID, Name: "A", HasConsented: true}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Campaigns().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CreationStep)

	vs, err := s.Victims().ListByCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestMongoStore_SupportersAndVersion(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()

	c := &models.Campaign{Title: "Clean River", Status: models.CampaignActive, CreationStep: 5, CreatedBy: primitive.NewObjectID(), CreatedAt: time.Now()}
	require.NoError(t, s.Campaigns().Insert(ctx, c))
	stale, err := s.Campaigns().Get(ctx, c.ID)
	require.NoError(t, err)

	user := primitive.NewObjectID()
	sup := models.Supporter{UserID: user, SupportType: models.SupportSignature, SupportedAt: time.Now()}
	require.NoError(t, s.Campaigns().AddSupporter(ctx, c.ID, sup))
	assert.ErrorIs(t, s.Campaigns().AddSupporter(ctx, c.ID, sup), store.ErrDuplicate)

	stale.Title = "Renamed"
	assert.ErrorIs(t, s.Campaigns().Update(ctx, stale), store.ErrConflict)

	removed, err := s.Campaigns().RemoveSupporter(ctx, c.ID, user)
	require.NoError(t, err)
	assert.Equal(t, models.SupportSignature, removed.SupportType)
	_, err = s.Campaigns().RemoveSupporter(ctx, c.ID, user)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Campaigns().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.EngagementMetrics.Supporters)
	assert.Equal(t, 0, got.EngagementMetrics.SignatureCount)
	assert.Empty(t, got.Supporters)
}
