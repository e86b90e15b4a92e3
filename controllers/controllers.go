// Package controllers holds the gin handlers.
package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/civic-go/config"
	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/services"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/store"
)

// Env is what every handler needs.
type Env struct {
	Config   *config.Config
	Services *services.Services
	Store    store.Store
	Logger   *slog.Logger
}

const (
	defaultTimeout = 10 * time.Second
	uploadTimeout  = 2 * time.Minute
)

func requestContext(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, env *Env, err error) {
	status := errs.HTTPStatus(err)
	body := gin.H{"success": false, "message": errs.PublicMessage(err)}

	var e *errs.Error
	if errors.As(err, &e) {
		body["code"] = e.Code
	}
	if status >= http.StatusInternalServerError {
		env.Logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"user_id", c.GetString("user_id"),
			"campaign_id", c.Param("id"),
			"error", err,
		)
		if !env.Config.IsProduction() {
			body["error"] = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, env *Env, code errs.Code, message string) {
	respondError(c, env, errs.New(errs.KindValidation, code, message))
}

// currentUser reads the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

func campaignID(c *gin.Context, env *Env) (primitive.ObjectID, bool) {
	id, err := services.ParseID(c.Param("id"), "campaign")
	if err != nil {
		respondError(c, env, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func uploadFile(fh *multipart.FileHeader) storage.UploadFile {
	return storage.UploadFile{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// ---------------- HEALTH ----------------
func Health(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, 2*time.Second)
		defer cancel()

		if err := env.Store.Ping(ctx); err != nil {
			env.Logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	}
}
