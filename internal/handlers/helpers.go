package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/logging"
	"studiorit/internal/middleware"
	"studiorit/internal/services"
)

// statusFor maps a service error to its HTTP status and wire code.
func statusFor(err error) (int, string) {
	if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrInvalidToken) {
		return http.StatusUnauthorized, "unauthorized"
	}
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound, kind.String()
	case apperr.KindForbidden:
		return http.StatusForbidden, kind.String()
	case apperr.KindValidation:
		return http.StatusBadRequest, kind.String()
	case apperr.KindConflict:
		return http.StatusConflict, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

func respondError(c *gin.Context, area, op string, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Logger.WithError(err).Errorf("[%s][%s][err]", area, op)
		msg = "internal server error"
	} else {
		logging.Logger.WithField("code", code).Debugf("[%s][%s][denied] %s", area, op, msg)
	}
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": apperr.KindValidation.String()})
}

// actor returns the authenticated caller or aborts with 401.
func actor(c *gin.Context) (authz.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized", "code": "unauthorized"})
	}
	return a, ok
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body fields are all
// optional. An empty body leaves v untouched.
func bindOptionalJSON(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return false
	}
	return true
}

// queryString returns a pointer to the query value when present and non-empty.
func queryString(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

// queryTime parses an RFC3339 query value.
func queryTime(c *gin.Context, key string) (*time.Time, bool) {
	v := queryString(c, key)
	if v == nil {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		badRequest(c, "invalid "+key+" (RFC3339)")
		return nil, false
	}
	return &t, true
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}
