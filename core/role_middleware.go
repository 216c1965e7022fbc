package core

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RoleOnly rejects requests whose session principal is not of the given role.
func RoleOnly(role Role, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := RequireRole(authSession(c), role); err != nil {
			respondKind(c, log, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
