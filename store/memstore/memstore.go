// Package memstore is an in-process store.Store used by tests and by the
// memory store driver in local development.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/store"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	campaigns map[primitive.ObjectID]models.Campaign
	teams     map[primitive.ObjectID]models.CampaignTeam
	victims   map[primitive.ObjectID]models.CampaignVictim
	evidence  map[primitive.ObjectID]models.CampaignEvidence
	users     map[primitive.ObjectID]models.User
}

func New() *Store {
	return &Store{
		campaigns: map[primitive.ObjectID]models.Campaign{},
		teams:     map[primitive.ObjectID]models.CampaignTeam{},
		victims:   map[primitive.ObjectID]models.CampaignVictim{},
		evidence:  map[primitive.ObjectID]models.CampaignEvidence{},
		users:     map[primitive.ObjectID]models.User{},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Campaigns() store.CampaignRepository { return campaigns{s} }
func (s *Store) Teams() store.TeamRepository         { return teams{s} }
func (s *Store) Victims() store.VictimRepository     { return victims{s} }
func (s *Store) Evidence() store.EvidenceRepository  { return evidence{s} }
func (s *Store) Users() store.UserRepository         { return users{s} }

func (s *Store) Ping(context.Context) error { return nil }

type txKey struct{}

// WithTransaction serializes transactions and restores a snapshot of every
// collection when fn fails. Nested calls join the outer transaction. Writes
// outside a transaction wait for it to finish.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// exclusive holds txMu for a write made outside a transaction, so a rollback
// in progress cannot discard it.
func (s *Store) exclusive(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	campaigns map[primitive.ObjectID]models.Campaign
	teams     map[primitive.ObjectID]models.CampaignTeam
	victims   map[primitive.ObjectID]models.CampaignVictim
	evidence  map[primitive.ObjectID]models.CampaignEvidence
	users     map[primitive.ObjectID]models.User
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		campaigns: make(map[primitive.ObjectID]models.Campaign, len(s.campaigns)),
		teams:     make(map[primitive.ObjectID]models.CampaignTeam, len(s.teams)),
		victims:   make(map[primitive.ObjectID]models.CampaignVictim, len(s.victims)),
		evidence:  make(map[primitive.ObjectID]models.CampaignEvidence, len(s.evidence)),
		users:     make(map[primitive.ObjectID]models.User, len(s.users)),
	}
	for k, v := range s.campaigns {
		snap.campaigns[k] = cloneCampaign(v)
	}
	for k, v := range s.teams {
		snap.teams[k] = cloneTeam(v)
	}
	for k, v := range s.victims {
		snap.victims[k] = cloneVictim(v)
	}
	for k, v := range s.evidence {
		snap.evidence[k] = cloneEvidence(v)
	}
	for k, v := range s.users {
		snap.users[k] = cloneUser(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns = snap.campaigns
	s.teams = snap.teams
	s.victims = snap.victims
	s.evidence = snap.evidence
	s.users = snap.users
}

// ---------------- CAMPAIGNS ----------------

type campaigns struct{ s *Store }

func (r campaigns) Insert(ctx context.Context, c *models.Campaign) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, ok := r.s.campaigns[c.ID]; ok {
		return store.ErrDuplicate
	}
	r.s.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (r campaigns) Get(_ context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneCampaign(c)
	return &out, nil
}

func (r campaigns) Update(ctx context.Context, c *models.Campaign) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.campaigns[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	if stored.Version != c.Version {
		return store.ErrConflict
	}
	next := cloneCampaign(*c)
	stored.Title = next.Title
	stored.Description = next.Description
	stored.ShortDescription = next.ShortDescription
	stored.Category = next.Category
	stored.Tags = next.Tags
	stored.Location = next.Location
	stored.StartDate = next.StartDate
	stored.EndDate = next.EndDate
	stored.Status = next.Status
	stored.CreationStep = next.CreationStep
	stored.CreationComplete = next.CreationComplete
	stored.HasVictims = next.HasVictims
	stored.Team = next.Team
	stored.Victims = next.Victims
	stored.EngagementMetrics.Supporters = next.EngagementMetrics.Supporters
	stored.EngagementMetrics.SignatureCount = next.EngagementMetrics.SignatureCount
	stored.EngagementMetrics.Views = next.EngagementMetrics.Views
	stored.UpdatedAt = next.UpdatedAt
	stored.Version++
	r.s.campaigns[c.ID] = stored
	c.Version = stored.Version
	return nil
}

func (r campaigns) List(_ context.Context, q store.CampaignQuery) ([]models.Campaign, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []models.Campaign
	for _, c := range r.s.campaigns {
		if matches(c, q) {
			out = append(out, cloneCampaign(c))
		}
	}
	sortCampaigns(out, q.Sort)

	total := int64(len(out))
	q.Skip = max(q.Skip, 0)
	if q.Skip >= total {
		return []models.Campaign{}, total, nil
	}
	out = out[q.Skip:]
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(c models.Campaign, q store.CampaignQuery) bool {
	if q.CreatedBy != nil && c.CreatedBy != *q.CreatedBy {
		return false
	}
	if q.Status != "" && string(c.Status) != q.Status {
		return false
	}
	if q.Category != "" && c.Category != q.Category {
		return false
	}
	if q.Location != "" && !containsFold(c.Location, q.Location) {
		return false
	}
	if q.Search != "" &&
		!containsFold(c.Title, q.Search) &&
		!containsFold(c.Description, q.Search) &&
		!containsFold(c.ShortDescription, q.Search) {
		return false
	}
	return true
}

func sortCampaigns(cs []models.Campaign, by string) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		switch by {
		case "oldest":
			return a.CreatedAt.Before(b.CreatedAt)
		case "popular":
			if a.EngagementMetrics.Supporters != b.EngagementMetrics.Supporters {
				return a.EngagementMetrics.Supporters > b.EngagementMetrics.Supporters
			}
		case "ending_soon":
			switch {
			case a.EndDate == nil && b.EndDate == nil:
			case a.EndDate == nil:
				return false
			case b.EndDate == nil:
				return true
			default:
				return a.EndDate.Before(*b.EndDate)
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (r campaigns) AppendEvidence(ctx context.Context, campaignID, evidenceID primitive.ObjectID, minStep int) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return store.ErrNotFound
	}
	found := false
	for _, id := range c.Evidence {
		if id == evidenceID {
			found = true
			break
		}
	}
	if !found {
		c.Evidence = append(c.Evidence, evidenceID)
	}
	if c.CreationStep < minStep {
		c.CreationStep = minStep
	}
	c.UpdatedAt = time.Now()
	c.Version++
	r.s.campaigns[campaignID] = c
	return nil
}

func (r campaigns) SetCoverImage(ctx context.Context, campaignID primitive.ObjectID, url string) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return store.ErrNotFound
	}
	c.CoverImage = &url
	c.UpdatedAt = time.Now()
	r.s.campaigns[campaignID] = c
	return nil
}

func (r campaigns) IncrementViews(ctx context.Context, campaignID primitive.ObjectID) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return store.ErrNotFound
	}
	c.EngagementMetrics.Views++
	r.s.campaigns[campaignID] = c
	return nil
}

func (r campaigns) AddSupporter(ctx context.Context, campaignID primitive.ObjectID, sup models.Supporter) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return store.ErrNotFound
	}
	if c.HasSupporter(sup.UserID) {
		return store.ErrDuplicate
	}
	c.Supporters = append(c.Supporters, sup)
	c.EngagementMetrics.Supporters++
	if sup.SupportType == models.SupportSignature {
		c.EngagementMetrics.SignatureCount++
	}
	c.Version++
	r.s.campaigns[campaignID] = c
	return nil
}

func (r campaigns) RemoveSupporter(ctx context.Context, campaignID, userID primitive.ObjectID) (*models.Supporter, error) {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return nil, store.ErrNotFound
	}
	idx := -1
	for i, sup := range c.Supporters {
		if sup.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	removed := c.Supporters[idx]
	c.Supporters = append(c.Supporters[:idx:idx], c.Supporters[idx+1:]...)
	c.EngagementMetrics.Supporters = max(0, c.EngagementMetrics.Supporters-1)
	if removed.SupportType == models.SupportSignature {
		c.EngagementMetrics.SignatureCount = max(0, c.EngagementMetrics.SignatureCount-1)
	}
	c.Version++
	r.s.campaigns[campaignID] = c
	return &removed, nil
}

// ---------------- TEAMS ----------------

type teams struct{ s *Store }

func (r teams) Insert(ctx context.Context, t *models.CampaignTeam) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.teams {
		if existing.CampaignID == t.CampaignID {
			return store.ErrDuplicate
		}
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.s.teams[t.ID] = cloneTeam(*t)
	return nil
}

func (r teams) GetByCampaign(_ context.Context, campaignID primitive.ObjectID) (*models.CampaignTeam, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.teams {
		if t.CampaignID == campaignID {
			out := cloneTeam(t)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r teams) Update(ctx context.Context, t *models.CampaignTeam) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[t.ID]; !ok {
		return store.ErrNotFound
	}
	r.s.teams[t.ID] = cloneTeam(*t)
	return nil
}

// ---------------- VICTIMS ----------------

type victims struct{ s *Store }

func (r victims) Insert(ctx context.Context, v *models.CampaignVictim) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	r.s.victims[v.ID] = cloneVictim(*v)
	return nil
}

func (r victims) Update(ctx context.Context, v *models.CampaignVictim) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.victims[v.ID]; !ok {
		return store.ErrNotFound
	}
	r.s.victims[v.ID] = cloneVictim(*v)
	return nil
}

func (r victims) ListByCampaign(_ context.Context, campaignID primitive.ObjectID) ([]models.CampaignVictim, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.CampaignVictim{}
	for _, v := range r.s.victims {
		if v.CampaignID == campaignID {
			out = append(out, cloneVictim(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r victims) Delete(ctx context.Context, ids []primitive.ObjectID) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		delete(r.s.victims, id)
	}
	return nil
}

func (r victims) DeleteByCampaign(ctx context.Context, campaignID primitive.ObjectID) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, v := range r.s.victims {
		if v.CampaignID == campaignID {
			delete(r.s.victims, id)
		}
	}
	return nil
}

// ---------------- EVIDENCE ----------------

type evidence struct{ s *Store }

func (r evidence) Insert(ctx context.Context, e *models.CampaignEvidence) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	r.s.evidence[e.ID] = cloneEvidence(*e)
	return nil
}

func (r evidence) Get(_ context.Context, id primitive.ObjectID) (*models.CampaignEvidence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.evidence[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneEvidence(e)
	return &out, nil
}

func (r evidence) ListByCampaign(_ context.Context, campaignID primitive.ObjectID) ([]models.CampaignEvidence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.CampaignEvidence{}
	for _, e := range r.s.evidence {
		if e.CampaignID == campaignID {
			out = append(out, cloneEvidence(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r evidence) CountByCampaign(_ context.Context, campaignID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, e := range r.s.evidence {
		if e.CampaignID == campaignID {
			n++
		}
	}
	return n, nil
}

func (r evidence) SetVerification(ctx context.Context, id primitive.ObjectID, v models.Verification, status models.EvidenceStatus) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.evidence[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Verification = &v
	e.Status = status
	e.UpdatedAt = time.Now()
	r.s.evidence[id] = e
	return nil
}

// ---------------- USERS ----------------

type users struct{ s *Store }

func (r users) Insert(ctx context.Context, u *models.User) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.s.users[u.ID] = cloneUser(*u)
	return nil
}

func (r users) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r users) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func (r users) AddSupport(ctx context.Context, userID, campaignID primitive.ObjectID, signed bool, activity models.Activity) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil
	}
	u.CampaignsSupported = addToSet(u.CampaignsSupported, campaignID)
	if signed {
		u.CampaignsSigned = addToSet(u.CampaignsSigned, campaignID)
	}
	u.ActivityLog = append(u.ActivityLog, activity)
	r.s.users[userID] = u
	return nil
}

func (r users) RemoveSupport(ctx context.Context, userID, campaignID primitive.ObjectID, signed bool) error {
	defer r.s.exclusive(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil
	}
	u.CampaignsSupported = pull(u.CampaignsSupported, campaignID)
	if signed {
		u.CampaignsSigned = pull(u.CampaignsSigned, campaignID)
	}
	r.s.users[userID] = u
	return nil
}
