package cognitive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/emotion"
)

const DefaultEndpoint = "https://westus.api.cognitive.microsoft.com"

type Client struct {
	APIKey   string
	Endpoint string
	http     *http.Client
}

func New(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{APIKey: apiKey, Endpoint: strings.TrimRight(endpoint, "/"), http: &http.Client{Timeout: 20 * time.Second}}
}

type face struct {
	FaceRectangle struct {
		Left   int `json:"left"`
		Top    int `json:"top"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"faceRectangle"`
	Scores ai.FaceScores `json:"scores"`
}

// Analyze posts the raw image to the recognize endpoint. Faces come back in the
// service's order (largest first).
func (c *Client) Analyze(ctx context.Context, image []byte) ([]emotion.Scores, error) {
	if c.APIKey == "" {
		return nil, errors.New("missing EMOTION_API_KEY")
	}
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/emotion/v1.0/recognize", bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("emotion api status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("emotion api status %d", resp.StatusCode)
	}
	var out []face
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode recognize response: %w", err)
	}
	scores := make([]emotion.Scores, 0, len(out))
	for _, f := range out {
		scores = append(scores, f.Scores.Scores())
	}
	return scores, nil
}
