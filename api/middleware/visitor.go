package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrynk/scrynk/config"
	"github.com/scrynk/scrynk/session"
)

// VisitorCookie is the cookie that identifies a browser across page views.
const VisitorCookie = "scrynk_visitor"

// visitorKey is the gin context key holding the visitor id.
const visitorKey = "visitor_id"

// Visitor returns middleware that assigns every browser a random visitor id
// and stores it in the request context for handlers and notifiers.
//
// The id carries no credentials; it only scopes toasts and the in-flight
// submission guard.
func Visitor(cfg config.SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.TTL.Seconds())

	return func(c *gin.Context) {
		id, err := c.Cookie(VisitorCookie)
		if err != nil || !session.ValidVisitorID(id) {
			id = session.NewVisitorID()
		}

		// Refresh on every request so an active visitor never expires.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(VisitorCookie, id, maxAge, "/", "", cfg.CookieSecure, true)

		c.Set(visitorKey, id)
		c.Request = c.Request.WithContext(session.WithVisitor(c.Request.Context(), id))
		c.Next()
	}
}
