package detect

import (
	"context"

	"movequote-backend/internal/model"
)

// MockDetector synthesizes plausible item counts from the number of
// uploaded photos. It is selected automatically when no vision
// credential is configured, so the demo works end to end offline.
type MockDetector struct{}

// NewMockDetector creates the synthesized-mode detector.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// Detect scales each category from the photo count with a floor, so
// even a single photo yields a furnished-looking quote.
func (d *MockDetector) Detect(ctx context.Context, images []model.ImagePayload) (model.ItemCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(images)
	counts := model.NewItemCounts()
	counts[model.ItemBedrooms] = n
	counts[model.ItemBathrooms] = maxInt(1, int(float64(n)*0.6))
	counts[model.ItemLargeFurniture] = maxInt(2, int(float64(n)*2.5))
	counts[model.ItemTables] = maxInt(1, int(float64(n)*1.8))
	counts[model.ItemChairs] = maxInt(3, int(float64(n)*3.2))
	return counts, nil
}
