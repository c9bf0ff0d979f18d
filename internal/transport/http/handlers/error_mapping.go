package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ErrorCase pairs a sentinel error with the status and message reported for
// it. Handlers keep their cases in package-level tables next to the routes
// that use them.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError writes the response for the first case matching err,
// or the fallback when none do. Wrapped errors match through errors.Is, so
// usecase sentinels survive annotation on the way up.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	status, message := fallbackStatus, fallbackMessage

	for _, cs := range cases {
		if cs.Err != nil && errors.Is(err, cs.Err) {
			status, message = cs.Status, cs.Message
			break
		}
	}

	c.JSON(status, NewErrorResponse(c, message))
}
