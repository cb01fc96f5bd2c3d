package routes

import (
	"github.com/courtsidehq/padel_community/handlers"
	"github.com/courtsidehq/padel_community/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.SuperAdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)
	users.Put("/:userId/role", handlers.SetUserRole)

	communities := admin.Group("/communities")
	communities.Get("", handlers.AdminListCommunities)
	communities.Put("/:communityId/status", handlers.ToggleCommunityStatus)

	admin.Get("/refund-requests", handlers.ListRefundRequests)
	admin.Post("/refund-requests/:paymentId/process", handlers.ProcessRefund)
}
