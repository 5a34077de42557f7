package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/klaud-0x/klaud-api/internal/apierr"
)

func statusForKind(k apierr.Kind) int {
	switch k {
	case apierr.BadRequest:
		return http.StatusBadRequest
	case apierr.NotFound:
		return http.StatusNotFound
	case apierr.RateLimited:
		return http.StatusTooManyRequests
	case apierr.UpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope for err. Taxonomy errors keep their
// caller-safe message and hints; anything else collapses to the generic
// internal-error shape with the detail logged, not exposed.
func (s *Server) fail(c *gin.Context, err error) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		s.log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("unexpected pipeline failure")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"message": "unexpected failure handling the request",
		})
		return
	}

	body := gin.H{"error": ae.Message}
	switch ae.Kind {
	case apierr.BadRequest:
		if len(ae.Examples) > 0 {
			body["examples"] = ae.Examples
		} else if ae.Example != "" {
			body["example"] = ae.Example
		}
	case apierr.NotFound:
		if ae.Suggestion != "" {
			body["suggestion"] = ae.Suggestion
		}
	case apierr.UpstreamUnavailable:
		s.log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": ae.Error(),
		}).Warn("upstream unavailable")
	}

	c.JSON(statusForKind(ae.Kind), body)
}
