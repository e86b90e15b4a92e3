package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/services"
	"github.com/phillip/civic-go/utils"
)

// ---------------- CREATE ----------------
func AddSupport(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		var input struct {
			SupportType string `json:"supportType" binding:"required"`
			Message     string `json:"message"`
			IsAnonymous bool   `json:"isAnonymous"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, env, errs.CodeMissingFields, "supportType is required")
			return
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		supporter, err := env.Services.Supporters.Add(ctx, services.AddSupportInput{
			CampaignID:  id,
			UserID:      userID,
			SupportType: models.SupportType(input.SupportType),
			Message:     input.Message,
			IsAnonymous: input.IsAnonymous,
		})
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusCreated, supporter)
	}
}

// ---------------- DELETE ----------------
func RemoveSupport(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		if err := env.Services.Supporters.Remove(ctx, id, userID); err != nil {
			respondError(c, env, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "support removed"})
	}
}

// ---------------- LIST ----------------
func ListSupporters(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := campaignID(c, env)
		if !ok {
			return
		}
		page, limit := utils.PageParams(c.Query("page"), c.Query("limit"))

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		supporters, pagination, err := env.Services.Supporters.List(ctx, services.ListSupportersInput{
			CampaignID:  id,
			Page:        page,
			Limit:       limit,
			SupportType: models.SupportType(c.Query("supportType")),
		})
		if err != nil {
			respondError(c, env, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": supporters, "pagination": pagination})
	}
}

// ---------------- CHECK ----------------
func CheckSupport(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		status, err := env.Services.Supporters.Check(ctx, id, userID)
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusOK, status)
	}
}
