package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"movequote-backend/internal/model"
	"movequote-backend/internal/parse"
)

type createSessionRequest struct {
	Flow model.Flow `json:"flow" binding:"required"`
}

// CreateSession starts a new wizard session for one of the two flows.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !model.ValidFlow(req.Flow) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flow must be \"manual\" or \"photo\""})
		return
	}

	sess := h.store.Create(req.Flow)
	c.JSON(http.StatusCreated, h.svc.Snapshot(sess))
}

// GetSession returns the session's full state. Clients poll this while
// the wizard is on the loading step.
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

type updateCountRequest struct {
	Key   model.ItemKey `json:"key" binding:"required"`
	Delta int           `json:"delta"`
}

// UpdateCount applies a +1/-1 style adjustment to one item category.
func (h *Handler) UpdateCount(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req updateCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.UpdateCount(sess, req.Key, req.Delta); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

type addImagesRequest struct {
	Images []struct {
		Name string `json:"name"`
		URL  string `json:"url" binding:"required"`
	} `json:"images" binding:"required"`
}

// AddImages accepts uploaded photos as data URLs (or plain URLs for the
// bundled example photo).
func (h *Handler) AddImages(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req addImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no images provided"})
		return
	}

	payloads := make([]model.ImagePayload, 0, len(req.Images))
	for _, img := range req.Images {
		if parse.IsDataURL(img.URL) {
			if _, err := parse.DataURL(img.URL); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		} else if !strings.HasPrefix(img.URL, "http://") && !strings.HasPrefix(img.URL, "https://") && !strings.HasPrefix(img.URL, "/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image url must be a data URL or an http(s) URL"})
			return
		}
		payloads = append(payloads, model.ImagePayload{
			ID:   uuid.NewString(),
			Name: img.Name,
			URL:  img.URL,
		})
	}

	if err := h.svc.AddImages(sess, payloads); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

// RemoveImage drops one uploaded photo.
func (h *Handler) RemoveImage(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.svc.RemoveImage(sess, c.Param("image_id")); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

type setAddressesRequest struct {
	Origin      model.Place `json:"origin"`
	Destination model.Place `json:"destination"`
}

// SetAddresses stores the two service addresses. When both carry
// resolved coordinates, the route and travel fee are computed in the
// background and show up in later session polls.
func (h *Handler) SetAddresses(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req setAddressesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SetAddresses(sess, req.Origin, req.Destination); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

// SubmitQuote runs the selection guard and kicks off quote computation.
// The response shows the loading step; clients poll GetSession until
// the quote step appears.
func (h *Handler) SubmitQuote(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.svc.SubmitQuote(sess); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.svc.Snapshot(sess))
}

// Modify returns from the quote step to the entry step.
func (h *Handler) Modify(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.svc.Modify(sess); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

// BeginSchedule advances from the quote step to the schedule form.
func (h *Handler) BeginSchedule(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.svc.BeginSchedule(sess); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

type updateFormFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// UpdateFormField stores one schedule field as the user types, clearing
// that field's previous validation error.
func (h *Handler) UpdateFormField(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req updateFormFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.UpdateFormField(sess, req.Field, req.Value); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

// SubmitSchedule validates the schedule form. Validation failures come
// back as 422 with per-field messages and the wizard stays put.
func (h *Handler) SubmitSchedule(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var form model.ScheduleForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fieldErrors, err := h.svc.SubmitSchedule(sess, form)
	if err != nil {
		abortWizard(c, err)
		return
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"fieldErrors": fieldErrors})
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

// CompletePayment finishes the demo payment screen.
func (h *Handler) CompletePayment(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.svc.CompletePayment(sess); err != nil {
		abortWizard(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}

// Reset restarts the wizard and clears all session state.
func (h *Handler) Reset(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	h.svc.Reset(sess)
	c.JSON(http.StatusOK, h.svc.Snapshot(sess))
}
