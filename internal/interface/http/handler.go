package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/pkg/response"
)

// writeErr maps a service error to the HTTP envelope. Typed domain errors
// carry their own status; anything else is a 500 with a generic message.
func writeErr(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		response.Error(c, apperr.HTTPStatus(err), ae.Message, nil)
		return
	}
	response.Error(c, 500, "internal server error", nil)
}
