package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseStringIDParam extracts a path parameter used as an opaque key, such
// as a session ID or an email address. On a blank value it writes the 400
// response itself and returns ""; callers just return early.
func ParseStringIDParam(c *gin.Context, param string) string {
	value := strings.TrimSpace(c.Param(param))
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: param + " must not be empty",
		})
		return ""
	}
	return value
}
