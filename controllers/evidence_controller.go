package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/civic-go/errs"
	"github.com/phillip/civic-go/models"
	"github.com/phillip/civic-go/services"
	"github.com/phillip/civic-go/storage"
	"github.com/phillip/civic-go/utils"
)

// ---------------- CREATE ----------------
func SubmitEvidence(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		// --- Bind form fields ---
		var input struct {
			Title              string  `form:"title" json:"title"`
			Description        string  `form:"description" json:"description"`
			Source             string  `form:"source" json:"source"`
			EvidenceType       string  `form:"evidenceType" json:"evidenceType"`
			DateCollected      *string `form:"dateCollected" json:"dateCollected"`
			TestimonialContent string  `form:"testimonialContent" json:"testimonialContent"`
			IsPublic           bool    `form:"isPublic" json:"isPublic"`
		}
		if err := c.ShouldBind(&input); err != nil {
			badRequest(c, env, errs.CodeInvalidInput, "invalid form data")
			return
		}

		var dateCollected *time.Time
		if input.DateCollected != nil && strings.TrimSpace(*input.DateCollected) != "" {
			parsed, err := utils.ParseDate(*input.DateCollected)
			if err != nil {
				badRequest(c, env, errs.CodeInvalidInput, err.Error())
				return
			}
			dateCollected = &parsed
		}

		// --- Collect files ---
		var files []storage.UploadFile
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			form, err := c.MultipartForm()
			if err != nil && err != http.ErrNotMultipart {
				badRequest(c, env, errs.CodeInvalidInput, "invalid form data")
				return
			}
			if form != nil {
				for _, key := range []string{"files", "files[]"} {
					for _, fh := range form.File[key] {
						files = append(files, uploadFile(fh))
					}
				}
			}
		}

		ctx, cancel := requestContext(c, uploadTimeout)
		defer cancel()

		created, err := env.Services.Evidence.Submit(ctx, services.SubmitEvidenceInput{
			CampaignID: id,
			ActorID:    userID,
			Meta: services.EvidenceMeta{
				Title:              input.Title,
				Description:        input.Description,
				Source:             models.EvidenceSource(input.Source),
				EvidenceType:       models.EvidenceType(input.EvidenceType),
				DateCollected:      dateCollected,
				TestimonialContent: input.TestimonialContent,
				IsPublic:           input.IsPublic,
			},
			Files: files,
		})
		if err != nil {
			respondError(c, env, err)
			return
		}

		if models.EvidenceType(input.EvidenceType) == models.EvidenceTestimonial && len(created) == 1 {
			respond(c, http.StatusCreated, created[0])
			return
		}
		respond(c, http.StatusCreated, created)
	}
}

// ---------------- LIST ----------------
func ListEvidence(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := campaignID(c, env)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, defaultTimeout)
		defer cancel()

		evidence, err := env.Services.Evidence.List(ctx, id)
		if err != nil {
			respondError(c, env, err)
			return
		}
		if len(evidence) == 0 {
			respond(c, http.StatusOK, evidence)
			return
		}

		// --- Pick the most recently updated record ---
		latest := evidence[0]
		for _, ev := range evidence {
			if ev.UpdatedAt.After(latest.UpdatedAt) {
				latest = ev
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		respond(c, http.StatusOK, evidence)
	}
}
