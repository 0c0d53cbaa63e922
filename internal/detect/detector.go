package detect

import (
	"context"

	"movequote-backend/config"
	"movequote-backend/internal/model"
)

// Detector converts a batch of uploaded photos into item counts. The
// output is always the fixed category-count map; per-image analysis
// failures are absorbed by a default substitution, so implementations
// only return an error when the context is cancelled.
type Detector interface {
	Detect(ctx context.Context, images []model.ImagePayload) (model.ItemCounts, error)
}

// defaultPerImage is substituted for an image whose analysis fails: one
// bedroom, nothing else. The flow still reaches the quote step with a
// plausible breakdown.
func defaultPerImage() model.ItemCounts {
	counts := model.NewItemCounts()
	counts[model.ItemBedrooms] = 1
	return counts
}

// New selects the operating mode from configuration: a vision-backed
// detector when an API key is present, the synthesized mock otherwise.
func New(cfg *config.VisionConfig) Detector {
	if cfg != nil && cfg.Configured() {
		return NewVisionDetector(cfg)
	}
	return NewMockDetector()
}
