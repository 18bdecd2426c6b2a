// Package handlers implements the browser-facing endpoints: account
// lifecycle, plan catalog, credits, trial, backup, payment proof and the
// generation proxy.
package handlers

import "github.com/gin-gonic/gin"

const userIDKey = "userID"

// GetUserID returns the authenticated account id set by the auth
// middleware, empty when the request is anonymous.
func GetUserID(c *gin.Context) string {
	value, ok := c.Get(userIDKey)
	if !ok {
		return ""
	}
	id, _ := value.(string)
	return id
}

// SetUserID stores the authenticated account id on the request context.
func SetUserID(c *gin.Context, id string) {
	c.Set(userIDKey, id)
}
