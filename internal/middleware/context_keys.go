package middleware

import "github.com/gin-gonic/gin"

// memberIDKey is the key used to store the authenticated member's ID in the
// request context.
const memberIDKey = contextKey("memberID")

// groupIDKey is the key used to store the authenticated member's group ID.
const groupIDKey = contextKey("groupID")

// isAdminKey marks the authenticated member as the group admin.
const isAdminKey = contextKey("isAdmin")

// GetMemberIDFromContext retrieves the authenticated member ID from the Gin
// context. It returns the member ID and a boolean indicating if it was found.
func GetMemberIDFromContext(c *gin.Context) (string, bool) {
	v := c.Request.Context().Value(memberIDKey)
	if v == nil {
		return "", false
	}
	memberID, ok := v.(string)
	return memberID, ok
}

// GetGroupIDFromContext retrieves the authenticated member's group ID from
// the Gin context.
func GetGroupIDFromContext(c *gin.Context) (string, bool) {
	v := c.Request.Context().Value(groupIDKey)
	if v == nil {
		return "", false
	}
	groupID, ok := v.(string)
	return groupID, ok
}

// IsAdminFromContext reports whether the authenticated member is the group
// admin.
func IsAdminFromContext(c *gin.Context) bool {
	v := c.Request.Context().Value(isAdminKey)
	isAdmin, ok := v.(bool)
	return ok && isAdmin
}
