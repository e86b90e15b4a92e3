package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/config"
	"github.com/phillip/civic-go/controllers"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/routes"
	"github.com/phillip/civic-go/services"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/store/memstore"
	"github.com/phillip/civic-go/utils"
)

const secret = "test-secret"

type stubProvider struct {
	name string
	fail bool
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Upload(_ context.Context, folder string, f storage.UploadFile) (*storage.Result, error) {
	if p.fail {
		return nil, errors.New(p.name + " down")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	return &storage.Result{URL: "https://" + p.name + ".test/" + folder + "/" + f.FileName, Provider: p.name, Bytes: int64(len(b))}, nil
}

type app struct {
	router *gin.Engine
	store  *memstore.Store
}

func newApp(t *testing.T, image, blob storage.Provider) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memstore.New()
	router := &storage.Router{Image: image, Blob: blob, Logger: logger}
	env := &controllers.Env{
		Config:   &config.Config{JWTSecret: secret, Env: "test"},
		Services: services.New(st, router, nil, logger),
		Store:    st,
		Logger:   logger,
	}
	r := gin.New()
	routes.SetupRoutes(r, env)
	return &app{router: r, store: st}
}

func token(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, userID.Hex(), "user", time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

type envelope struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Code       string           `json:"code"`
	Error      string           `json:"error"`
	Data       json.RawMessage  `json:"data"`
	Pagination utils.Pagination `json:"pagination"`
}

func (a *app) do(t *testing.T, method, path, auth string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return a.serve(t, req)
}

func (a *app) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func multipartBody(t *testing.T, fields map[string]string, fileKey string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileKey+`"; filename="`+name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *app) createCampaign(t *testing.T, auth string) models.Campaign {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/campaigns", auth, gin.H{
		"title":            "Save the Park",
		"description":      "Stop the parking lot",
		"shortDescription": "Keep it green",
		"category":         "environment",
		"tags":             []string{"parks"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c models.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

func TestCreateCampaign(t *testing.T) {
	a := newApp(t, stubProvider{name: "cloudinary"}, stubProvider{name: "s3"})
	user := primitive.NewObjectID()

	w, _ := a.do(t, http.MethodPost, "/campaigns", "", gin.H{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := a.do(t, http.MethodPost, "/campaigns", token(t, user), gin.H{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "MISSING_FIELDS", env.Code)

	c := a.createCampaign(t, token(t, user))
	assert.Equal(t, user, c.CreatedBy)
	assert.Equal(t, models.CampaignDraft, c.Status)
	assert.Equal(t, 1, c.CreationStep)
}

func TestCampaignStepFlow(t *testing.T) {
	a := newApp(t, stubProvider{name: "cloudinary"}, stubProvider{name: "s3"})
	creator := primitive.NewObjectID()
	auth := token(t, creator)
	c := a.createCampaign(t, auth)
	path := "/campaigns/" + c.ID.Hex() + "/step"

	w, env := a.do(t, http.MethodPut, path, auth, gin.H{"step": 3, "data": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STEP_SEQUENCE", env.Code)
	assert.Contains(t, env.Message, "step 3")

	w, env = a.do(t, http.MethodPut, path, token(t, primitive.NewObjectID()), gin.H{"step": 1, "data": gin.H{}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	w, env = a.do(t, http.MethodPut, path, auth, gin.H{"step": 1, "data": gin.H{"title": "Save the Park", "tags": []string{" a ", ""}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var d models.CampaignDetail
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, 2, d.CreationStep)
	assert.Equal(t, []string{"a"}, d.Tags)
	require.NotNil(t, d.TeamDoc)

	coLeader := primitive.NewObjectID()
	w, env = a.do(t, http.MethodPut, path, auth, gin.H{"step": 2, "data": gin.H{"coLeader": gin.H{"userId": coLeader.Hex()}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.NotNil(t, d.TeamDoc.CoLeader)
	assert.False(t, d.TeamDoc.CoLeader.AcceptedInvite)

	stale := d.Version - 1
	w, env = a.do(t, http.MethodPut, path, auth, gin.H{"step": 3, "data": gin.H{"hasVictims": false}, "version": stale})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Code)

	w, _ = a.do(t, http.MethodPut, path, auth, gin.H{"step": 3, "data": gin.H{"hasVictims": false}, "version": d.Version})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = a.do(t, http.MethodPut, path, auth, gin.H{"step": 4, "data": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EVIDENCE_REQUIRED", env.Code)

	w, env = a.do(t, http.MethodPut, path, auth, gin.H{"step": 4, "data": gin.H{"skipEvidence": true, "publishNow": true}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.True(t, d.CreationComplete)
	assert.Equal(t, models.CampaignActive, d.Status)

	w, env = a.do(t, http.MethodPut, path, auth, gin.H{"step": 1, "data": "not an object"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", env.Code)

	w, env = a.do(t, http.MethodPut, "/campaigns/nope/step", auth, gin.H{"step": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Code)

	w, _ = a.do(t, http.MethodPut, "/campaigns/"+primitive.NewObjectID().Hex()+"/step", auth, gin.H{"step": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCampaigns(t *testing.T) {
	a := newApp(t, nil, stubProvider{name: "s3"})
	auth := token(t, primitive.NewObjectID())
	a.createCampaign(t, auth)
	a.createCampaign(t, auth)

	w, env := a.do(t, http.MethodGet, "/campaigns", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))

	w, env = a.do(t, http.MethodGet, "/campaigns?status=all&limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, utils.Pagination{Total: 2, Page: 1, Pages: 2, Limit: 1}, env.Pagination)

	w, env = a.do(t, http.MethodGet, "/campaigns/mine", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), env.Pagination.Total)
}

func TestEvidenceEndpoints(t *testing.T) {
	a := newApp(t, stubProvider{name: "cloudinary"}, stubProvider{name: "s3"})
	creator := primitive.NewObjectID()
	auth := token(t, creator)
	c := a.createCampaign(t, auth)
	path := "/campaigns/" + c.ID.Hex() + "/evidence"

	body, ct := multipartBody(t, map[string]string{
		"title":        "Bulldozers",
		"description":  "Arrived Monday",
		"source":       "personal",
		"evidenceType": "photo",
	}, "files", map[string]string{"one.png": "png-1", "two.png": "png-2"})
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", auth)
	w, env := a.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created []models.CampaignEvidence
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 2)
	for _, ev := range created {
		assert.Equal(t, "cloudinary", ev.MediaFile.Provider)
		assert.Equal(t, models.EvidencePending, ev.Status)
	}

	w, env = a.do(t, http.MethodPost, path, auth, gin.H{
		"title":              "Statement",
		"description":        "Neighbour",
		"source":             "witness",
		"evidenceType":       "testimonial",
		"testimonialContent": "I saw it.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var single models.CampaignEvidence
	require.NoError(t, json.Unmarshal(env.Data, &single))
	assert.Equal(t, "I saw it.", single.TestimonialContent)

	w, env = a.do(t, http.MethodPost, path, token(t, primitive.NewObjectID()), gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Code)

	w, env = a.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.CampaignEvidence
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 3)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestCoverImage(t *testing.T) {
	a := newApp(t, stubProvider{name: "cloudinary", fail: true}, stubProvider{name: "s3"})
	auth := token(t, primitive.NewObjectID())
	c := a.createCampaign(t, auth)
	path := "/campaigns/" + c.ID.Hex() + "/cover-image"

	w, env := a.do(t, http.MethodPost, path, auth, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct := multipartBody(t, nil, "coverImage", map[string]string{"cover.png": "png"})
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", auth)
	w, env = a.serve(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"coverImage":"https://s3.test/covers/cover.png"}`, string(env.Data))
}

func TestCoverImage_BothProvidersFail(t *testing.T) {
	a := newApp(t, stubProvider{name: "cloudinary", fail: true}, stubProvider{name: "s3", fail: true})
	auth := token(t, primitive.NewObjectID())
	c := a.createCampaign(t, auth)

	body, ct := multipartBody(t, nil, "coverImage", map[string]string{"cover.png": "png"})
	req := httptest.NewRequest(http.MethodPost, "/campaigns/"+c.ID.Hex()+"/cover-image", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", auth)
	w, env := a.serve(t, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "STORAGE_FAILED", env.Code)
	assert.Contains(t, env.Error, "s3 down", "cause is shown outside production")
}

func TestSupporterEndpoints(t *testing.T) {
	a := newApp(t, nil, stubProvider{name: "s3"})
	creator := primitive.NewObjectID()
	c := a.createCampaign(t, token(t, creator))
	path := "/campaigns/" + c.ID.Hex() + "/supporters"

	fan := primitive.NewObjectID()
	require.NoError(t, a.store.Users().Insert(context.Background(), &models.User{ID: fan, Name: "Fan"}))
	auth := token(t, fan)

	w, env := a.do(t, http.MethodPost, path, auth, gin.H{"supportType": "signature", "message": "yes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = a.do(t, http.MethodPost, path, auth, gin.H{"supportType": "signature"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_SUPPORTING", env.Code)

	w, env = a.do(t, http.MethodGet, path+"/check", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status services.SupportStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.IsSupporting)

	w, env = a.do(t, http.MethodGet, path+"?supportType=signature", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []models.SupporterView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Fan", views[0].User.Name)
	assert.Equal(t, int64(1), env.Pagination.Total)

	got, err := a.store.Campaigns().Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.EngagementMetrics.SignatureCount)

	w, _ = a.do(t, http.MethodDelete, path, auth, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = a.do(t, http.MethodDelete, path, auth, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_SUPPORTING", env.Code)

	got, _ = a.store.Campaigns().Get(context.Background(), c.ID)
	assert.Equal(t, 0, got.EngagementMetrics.SignatureCount)
}

func TestHealth(t *testing.T) {
	a := newApp(t, nil, nil)
	w, _ := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
