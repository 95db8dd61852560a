package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/duynhne/callerid-service/middleware"
)

// Handlers bundles the v1 endpoint handlers
type Handlers struct {
	Auth     *AuthHandler
	Search   *SearchHandler
	Spam     *SpamReportHandler
	Contacts *ContactHandler
}

// Limiters holds the request budgets; a nil limiter lets everything through.
type Limiters struct {
	Anonymous     *middleware.RateLimiter
	Authenticated *middleware.RateLimiter
	Login         *middleware.RateLimiter
}

// RegisterRoutes mounts the v1 API on group. The auth routes are public and
// budgeted per client IP; everything else requires a bearer token and is
// budgeted per account.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc, limits Limiters) {
	auth := group.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(limits.Anonymous, middleware.ClientIPKey))
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", middleware.RateLimitMiddleware(limits.Login, middleware.ClientIPKey), h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	private := group.Group("")
	private.Use(requireAuth, middleware.RateLimitMiddleware(limits.Authenticated, middleware.AccountKey))
	{
		private.GET("/search", h.Search.Search)

		private.POST("/spam-reports", h.Spam.Create)
		private.GET("/spam-reports", h.Spam.List)

		private.GET("/contacts", h.Contacts.List)
		private.POST("/contacts", h.Contacts.Create)
		private.GET("/contacts/:id", h.Contacts.Get)
		private.PUT("/contacts/:id", h.Contacts.Replace)
		private.PATCH("/contacts/:id", h.Contacts.Patch)
		private.DELETE("/contacts/:id", h.Contacts.Delete)
	}
}
