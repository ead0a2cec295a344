package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/bloodlink/delivery-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError converts any error into the response taxonomy. Domain
// errors keep their message; everything else is logged and reported as
// a generic internal error so internals never leak to the caller.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr.Code == apperrors.ErrInternal {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("unexpected error")
	}
	c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
}
