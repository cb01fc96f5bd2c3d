package routes

import (
	"github.com/courtsidehq/padel_community/handlers"
	"github.com/courtsidehq/padel_community/middleware"
	"github.com/gofiber/fiber/v2"
)

func CommunityRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Public discovery endpoints.
	api.Get("/communities", handlers.ListCommunities)
	api.Get("/communities/:communityId", handlers.GetCommunity)

	communities := api.Group("/communities", middleware.Protected())
	communities.Post("", middleware.ManagerRequired(), handlers.CreateCommunity)
	communities.Put("/:communityId", middleware.ManagerRequired(), handlers.UpdateCommunity)
	communities.Post("/:communityId/join", handlers.JoinCommunity)
	communities.Post("/:communityId/leave", handlers.LeaveCommunity)
	communities.Get("/:communityId/members", handlers.ListCommunityMembers)

	manage := communities.Group("/:communityId", middleware.ManagerRequired())
	manage.Put("/members/:memberId", handlers.ProcessMemberRequest)
	manage.Post("/sub-communities", handlers.CreateSubCommunity)
	manage.Post("/broadcast", handlers.BroadcastToCommunity)
}
