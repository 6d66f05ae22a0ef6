// Package handlers adapts HTTP requests to the service layer. Every
// response is {success: bool, ...}; failures carry an "error" message.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"
	"signlearn-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errTokenRequired = apperr.Unauthorized("authorization token required")

// Responder writes error responses. Debug attaches the error cause.
type Responder struct {
	Logger *zap.Logger
	Debug  bool
}

func (r Responder) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	body := gin.H{"success": false, "error": apperr.Message(err)}

	switch kind {
	case apperr.KindInternal, apperr.KindUnavailable:
		r.Logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("kind", kind.String()),
			zap.Error(err))
		if r.Debug {
			body["debug"] = err.Error()
		}
	}
	c.JSON(kind.Status(), body)
}

// bind decodes the JSON body into req. An empty body is accepted when
// optional is set.
func (r Responder) bind(c *gin.Context, req interface{}, optional bool) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	return false
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + what + " id"})
		return uuid.Nil, false
	}
	return id, true
}

// requireActor returns the actor set by the auth middleware.
func requireActor(c *gin.Context) (*auth.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		middleware.Abort(c, errTokenRequired)
		return nil, false
	}
	return actor, true
}

func optionalActor(c *gin.Context) *auth.Actor {
	actor, _ := middleware.GetActor(c)
	return actor
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// degraded flags the response as served without persistence.
func degraded(c *gin.Context, body gin.H, persisted bool) gin.H {
	body["persisted"] = persisted
	if !persisted {
		middleware.MarkDegraded(c)
	}
	return body
}

func fallback(c *gin.Context, body gin.H, isFallback bool) gin.H {
	if isFallback {
		body["fallback"] = true
		middleware.MarkDegraded(c)
	}
	return body
}
