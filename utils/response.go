package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse writes the success envelope shared by every endpoint:
// {status, message, data}.
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError writes the error envelope: {status, message, error}. The
// error text is the wrapped service error, safe to expose.
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}
