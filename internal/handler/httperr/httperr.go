package httperr

import (
	"net/http"

	"petcare-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
		Kind    string `json:"kind,omitempty"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	abort(c, err, resp)
}

// AbortWithDomainError picks the status from the error's kind. Unclassified
// errors become a 500 and their message is not exposed.
func AbortWithDomainError(c *gin.Context, err error, msg string) {
	if err == nil {
		panic("AbortWithDomainError: err cannot be nil")
	}

	kind := errs.KindOf(err)
	status := StatusFor(kind)

	resp := Response{Status: status}
	resp.Error.Kind = string(kind)
	if status == http.StatusInternalServerError {
		resp.Error.Message = "Internal server error"
	} else {
		resp.Error.Message = msg
		resp.Detail = err.Error()
	}

	abort(c, err, resp)
}

func StatusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindConflict, errs.KindInvalidState:
		return http.StatusConflict
	case errs.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error, resp Response) {
	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(resp.Status, resp)
}
