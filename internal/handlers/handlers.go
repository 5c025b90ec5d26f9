package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/warbler-app/warbler/internal/apperrors"
)

// respondError maps a service error onto the wire. Internal failures are
// not leaked verbatim.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	msg := "internal server error"
	if apperrors.Public(err) {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}
