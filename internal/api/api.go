// Package api exposes the activity registry over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/celerix-dev/mergington-activities/internal/metrics"
	"github.com/celerix-dev/mergington-activities/internal/registry"
)

// Response details. Clients match on "not found", "already signed up" and
// "not signed up", so keep those phrases.
const (
	DetailNotFound        = "Activity not found"
	DetailAlreadySignedUp = "Student is already signed up"
	DetailNotSignedUp     = "Student is not signed up for this activity"
	DetailEmailRequired   = "email query parameter is required"
)

type Handler struct {
	Store   registry.Store
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// ListActivities returns every activity keyed by name.
func (h *Handler) ListActivities(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.List())
}

func (h *Handler) Signup(c *gin.Context) {
	h.enroll(c, metrics.OpSignup, h.Store.Signup)
}

func (h *Handler) Unregister(c *gin.Context) {
	h.enroll(c, metrics.OpUnregister, h.Store.Unregister)
}

func (h *Handler) enroll(c *gin.Context, op string, apply func(activity, email string) (string, error)) {
	// gin matches on the decoded path, so the name is already unescaped.
	activity := c.Param("activity")
	email, ok := c.GetQuery("email")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": DetailEmailRequired})
		return
	}

	msg, err := apply(activity, email)
	if h.Metrics != nil {
		h.Metrics.ObserveEnrollment(op, activity, err)
	}

	log := h.logger().With(
		zap.String("operation", op),
		zap.String("activity", activity),
		zap.String("email", email),
	)
	if err != nil {
		status, detail := errorResponse(err)
		log.Warn("enrollment rejected", zap.Error(err), zap.Int("status", status))
		c.JSON(status, gin.H{"detail": detail})
		return
	}

	log.Info("enrollment updated")
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// errorResponse maps registry errors onto HTTP status and detail text.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrActivityNotFound):
		return http.StatusNotFound, DetailNotFound
	case errors.Is(err, registry.ErrAlreadySignedUp):
		return http.StatusBadRequest, DetailAlreadySignedUp
	case errors.Is(err, registry.ErrNotSignedUp):
		return http.StatusBadRequest, DetailNotSignedUp
	}
	return http.StatusInternalServerError, "Internal Server Error"
}
