package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"movequote-backend/internal/pricing"
	"movequote-backend/internal/wizard"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store  *wizard.Store
	svc    *wizard.Service
	engine *pricing.Engine
}

// NewHandler creates a new API handler.
func NewHandler(store *wizard.Store, svc *wizard.Service, engine *pricing.Engine) *Handler {
	return &Handler{
		store:  store,
		svc:    svc,
		engine: engine,
	}
}

// session resolves the :id path parameter or aborts with 404.
func (h *Handler) session(c *gin.Context) (*wizard.Session, bool) {
	sess, found := h.store.Get(c.Param("id"))
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

// abortWizard maps wizard errors to HTTP responses.
func abortWizard(c *gin.Context, err error) {
	var guard *wizard.GuardError
	switch {
	case errors.As(err, &guard):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": guard.Message})
	case errors.Is(err, wizard.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, wizard.ErrUnknownCategory):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
