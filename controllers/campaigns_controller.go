package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/services"
	"github.com/phillip/civic-go/utils"
)

// ---------------- CREATE ----------------
func CreateCampaign(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}

		var input struct {
			Title            string   `json:"title" binding:"required"`
			Description      string   `json:"description" binding:"required"`
			ShortDescription string   `json:"shortDescription" binding:"required"`
			Category         string   `json:"category" binding:"required"`
			Tags             []string `json:"tags"`
			Location         string   `json:"location"`
			EndDate          *string  `json:"endDate"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, env, errs.CodeMissingFields, "title, description, shortDescription and category are required")
			return
		}

		// --- Parse end date if provided ---
		var endDate *time.Time
		if input.EndDate != nil && *input.EndDate != "" {
			parsed, err := utils.ParseDate(*input.EndDate)
			if err != nil {
				badRequest(c, env, errs.CodeInvalidInput, err.Error())
				return
			}
			endDate = &parsed
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		campaign, err := env.Services.Campaigns.Create(ctx, userID, services.CreateCampaignInput{
			Title:            input.Title,
			Description:      input.Description,
			ShortDescription: input.ShortDescription,
			Category:         input.Category,
			Tags:             input.Tags,
			Location:         input.Location,
			EndDate:          endDate,
		})
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusCreated, campaign)
	}
}

// ---------------- LIST ----------------
func ListCampaigns(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := utils.PageParams(c.Query("page"), c.Query("limit"))

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		campaigns, pagination, err := env.Services.Campaigns.List(ctx, services.ListCampaignsInput{
			Category: c.Query("category"),
			Location: c.Query("location"),
			Status:   c.Query("status"),
			Search:   c.Query("search"),
			Sort:     c.Query("sort"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			respondError(c, env, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": campaigns, "pagination": pagination})
	}
}

func MyCampaigns(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		page, limit := utils.PageParams(c.Query("page"), c.Query("limit"))

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		campaigns, pagination, err := env.Services.Campaigns.Mine(ctx, userID, page, limit)
		if err != nil {
			respondError(c, env, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": campaigns, "pagination": pagination})
	}
}

// ---------------- GET ----------------
func GetCampaign(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		detail, err := env.Services.Campaigns.Get(ctx, id)
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusOK, detail)
	}
}

// ---------------- STEP ----------------
func UpdateCampaignStep(env *Env) gin.HandlerFunc {
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
			Step    int             `json:"step" binding:"required"`
			Data    json.RawMessage `json:"data"`
			Version *int64          `json:"version"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, env, errs.CodeInvalidStep, "step is required")
			return
		}

		payload, err := models.DecodeStepPayload(input.Step, input.Data)
		if err != nil {
			badRequest(c, env, errs.CodeInvalidInput, err.Error())
			return
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		detail, err := env.Services.Campaigns.Advance(ctx, services.AdvanceInput{
			CampaignID: id,
			ActorID:    userID,
			Step:       input.Step,
			Payload:    payload,
			Version:    input.Version,
		})
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusOK, detail)
	}
}

// ---------------- TEAM ----------------
func AcceptTeamInvitation(env *Env) gin.HandlerFunc {
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

		team, err := env.Services.Campaigns.AcceptInvitation(ctx, id, userID)
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusOK, team)
	}
}

// ---------------- COVER IMAGE ----------------
func UploadCoverImage(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("coverImage")
		if err != nil {
			badRequest(c, env, errs.CodeMissingFields, "coverImage file is required")
			return
		}

		ctx, cancel := requestContext(c, uploadTimeout)
		defer cancel()

		url, err := env.Services.Campaigns.SetCoverImage(ctx, id, userID, uploadFile(fileHeader))
		if err != nil {
			respondError(c, env, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"coverImage": url})
	}
}
