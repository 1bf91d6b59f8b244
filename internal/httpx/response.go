// Package httpx holds the response envelope shared by every gin handler.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ummahconnect/community-backend/internal/apperr"
	"github.com/ummahconnect/community-backend/utils"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes err as a failure envelope. Internal failures are logged and
// their cause is not exposed to the client.
func Error(c *gin.Context, err error) {
	e := apperr.From(err)
	status := e.Kind.HTTPStatus()

	message := e.Message
	if e.Kind == apperr.KindInternal || e.Kind == apperr.KindUpstream {
		utils.Logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Str("code", string(e.Code)).
			Msg("request failed")
	} else if e.Cause != nil {
		message = e.Error()
	}

	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Code: string(e.Code)})
}

// ParamUint reads a positive numeric path parameter.
func ParamUint(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.WithMessage(apperr.ErrInvalidInput, "invalid "+name)
	}
	return uint(id), nil
}

// QueryInt reads an integer query parameter, falling back to def when the
// parameter is missing or malformed.
func QueryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// NoContent is used by handlers whose success body carries no data.
func NoContent(c *gin.Context, message string) {
	OK(c, http.StatusOK, message, nil)
}
