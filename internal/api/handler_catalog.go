package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movequote-backend/internal/model"
)

// categoryEntry describes one selectable item category for the entry
// screen.
type categoryEntry struct {
	Key      model.ItemKey `json:"key"`
	Label    string        `json:"label"`
	BaseRate int           `json:"baseRate"`
}

var categoryLabels = map[model.ItemKey]string{
	model.ItemBedrooms:       "Bedrooms",
	model.ItemBathrooms:      "Bathrooms",
	model.ItemLargeFurniture: "Large Furniture",
	model.ItemTables:         "Tables",
	model.ItemChairs:         "Chairs",
}

// GetCatalog returns the static data the entry and schedule screens
// render from: the category list with base rates and the selectable
// time slots. The response is cached.
func (h *Handler) GetCatalog(c *gin.Context) {
	rates := h.engine.BaseRates()

	categories := make([]categoryEntry, 0, len(model.ItemKeys))
	for _, key := range model.ItemKeys {
		categories = append(categories, categoryEntry{
			Key:      key,
			Label:    categoryLabels[key],
			BaseRate: rates[key],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"timeSlots":  model.TimeSlots,
	})
}

// Healthz is a liveness probe.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
