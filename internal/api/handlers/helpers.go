package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func internalError(c *gin.Context) {
	writeError(c, http.StatusInternalServerError, "internal server error")
}
