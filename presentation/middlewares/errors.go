package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hilthontt/burnchat/domain/model"
)

const (
	CodeRoomNotFound     = "room-not-found"
	CodeInvalidToken     = "invalid-token"
	CodeRoomFull         = "room-is-full"
	CodeValidation       = "validation-error"
	CodeConflict         = "conflict"
	CodeEndpointNotFound = "endpoint-not-found"
	CodeRateLimited      = "rate-limited"
	CodeInternal         = "internal-error"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

// StatusFor maps a domain error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return http.StatusNotFound, CodeRoomNotFound
	case errors.Is(err, model.ErrInvalidToken):
		return http.StatusBadRequest, CodeInvalidToken
	case errors.Is(err, model.ErrRoomFull):
		return http.StatusBadRequest, CodeRoomFull
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// AbortWithError writes the error envelope for err and stops the chain.
// Internal details are hidden in release mode.
func AbortWithError(c *gin.Context, err error) {
	status, code := StatusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		if gin.Mode() == gin.ReleaseMode {
			message = "internal server error"
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// AbortWithBindingError reports a request that failed to bind or validate.
func AbortWithBindingError(c *gin.Context, err error) {
	resp := ErrorResponse{
		Error:   http.StatusText(http.StatusUnprocessableEntity),
		Message: TranslateValidationError(err),
		Code:    CodeValidation,
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		resp.Field = validationErrs[0].Field()
	}

	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp)
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   http.StatusText(http.StatusNotFound),
		Message: "endpoint not found",
		Code:    CodeEndpointNotFound,
	})
}
