package session

import "github.com/gin-gonic/gin"

const contextKey = "session"

// Attach stores s on the request context for downstream handlers.
func Attach(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

// FromContext returns the request's session, or nil when signed out.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
