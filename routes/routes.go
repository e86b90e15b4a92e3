package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/phillip/civic-go/controllers"
	"github.com/phillip/civic-go/middleware"
)

func SetupRoutes(r *gin.Engine, env *controllers.Env) {
	// public
	r.GET("/health", controllers.Health(env))

	// protected
	auth := middleware.AuthMiddleware(env.Config)

	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("", controllers.ListCampaigns(env))
		campaigns.POST("", auth, controllers.CreateCampaign(env))
		campaigns.GET("/mine", auth, controllers.MyCampaigns(env))
		campaigns.GET("/:id", controllers.GetCampaign(env))
		campaigns.PUT("/:id/step", auth, controllers.UpdateCampaignStep(env))
		campaigns.POST("/:id/team/accept", auth, controllers.AcceptTeamInvitation(env))
		campaigns.POST("/:id/cover-image", auth, controllers.UploadCoverImage(env))

		// evidence
		campaigns.GET("/:id/evidence", controllers.ListEvidence(env))
		campaigns.POST("/:id/evidence", auth, controllers.SubmitEvidence(env))

		// supporters
		campaigns.GET("/:id/supporters", controllers.ListSupporters(env))
		campaigns.POST("/:id/supporters", auth, controllers.AddSupport(env))
		campaigns.DELETE("/:id/supporters", auth, controllers.RemoveSupport(env))
		campaigns.GET("/:id/supporters/check", auth, controllers.CheckSupport(env))
	}
}
