package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// errorResponse is the body of a failed trigger call.
type errorResponse struct {
	Error string `json:"error"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Trigger writes a trigger endpoint result as a flat JSON object.
func Trigger(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

func TriggerError(c *gin.Context, status int, err error) {
	c.JSON(status, errorResponse{Error: err.Error()})
}
