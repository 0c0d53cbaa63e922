package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"movequote-backend/config"
	"movequote-backend/internal/model"
)

const visionPrompt = `Analyze this room photo and count furniture items. Categorize as:
- bedrooms: 1 (this photo represents 1 bedroom)
- bathrooms: count visible bathrooms/bathroom fixtures
- largeFurniture: sofas, beds, dressers, wardrobes, bookcases, large cabinets
- tables: dining tables, coffee tables, desks, nightstands, end tables
- chairs: dining chairs, office chairs, any seating furniture

Return ONLY a JSON object with these exact keys: {"bedrooms": 1, "bathrooms": 0, "largeFurniture": 0, "tables": 0, "chairs": 0}`

// VisionDetector delegates image analysis to an OpenAI-compatible
// chat-completions endpoint, one request per image, and sums the
// per-image counts. An image whose analysis fails contributes the
// default substitution instead of aborting the batch.
type VisionDetector struct {
	cfg    *config.VisionConfig
	client *http.Client
}

// NewVisionDetector creates a detector backed by the configured vision
// service.
func NewVisionDetector(cfg *config.VisionConfig) *VisionDetector {
	return &VisionDetector{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// imageCounts is the JSON shape the model is prompted to return.
type imageCounts struct {
	Bedrooms       int `json:"bedrooms"`
	Bathrooms      int `json:"bathrooms"`
	LargeFurniture int `json:"largeFurniture"`
	Tables         int `json:"tables"`
	Chairs         int `json:"chairs"`
}

// Detect analyzes each image and aggregates the counts. Only a
// cancelled context produces an error; individual failures fall back to
// the documented default of one bedroom per image.
func (d *VisionDetector) Detect(ctx context.Context, images []model.ImagePayload) (model.ItemCounts, error) {
	total := model.NewItemCounts()

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		counts, err := d.analyzeImage(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("vision: analysis failed for image %s: %v", img.ID, err)
			counts = defaultPerImage()
		}
		total.Add(counts)
	}

	return total, nil
}

func (d *VisionDetector) analyzeImage(ctx context.Context, img model.ImagePayload) (model.ItemCounts, error) {
	reqBody := chatRequest{
		Model: d.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: visionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: img.URL}},
				},
			},
		},
		MaxTokens: 300,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision api returned status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty vision response")
	}

	content := stripCodeFences(parsed.Choices[0].Message.Content)

	var ic imageCounts
	if err := json.Unmarshal([]byte(content), &ic); err != nil {
		return nil, fmt.Errorf("parse item counts: %w", err)
	}

	counts := model.NewItemCounts()
	// Each photo stands for at least one bedroom.
	counts[model.ItemBedrooms] = maxInt(ic.Bedrooms, 1)
	counts[model.ItemBathrooms] = maxInt(ic.Bathrooms, 0)
	counts[model.ItemLargeFurniture] = maxInt(ic.LargeFurniture, 0)
	counts[model.ItemTables] = maxInt(ic.Tables, 0)
	counts[model.ItemChairs] = maxInt(ic.Chairs, 0)
	return counts, nil
}

// stripCodeFences removes the markdown fencing some models wrap around
// JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
