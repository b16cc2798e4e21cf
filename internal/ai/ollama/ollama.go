package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kiliankoe/faceoff/internal/ai"
	"github.com/kiliankoe/faceoff/internal/emotion"
)

const DefaultModel = "llava"

const systemPrompt = `You rate facial expressions. For every human face in the image return an object ` +
	`with the keys anger, contempt, disgust, fear, happiness, neutral, sadness, surprise. ` +
	`Each value is a number between 0 and 1 and the values of one face sum to 1. ` +
	`Reply with JSON only: {"faces":[...]}. Reply {"faces":[]} when there is no face.`

type Client struct {
	Host  string
	Model string
	http  *http.Client
}

func New(host, model string) *Client {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{Host: strings.TrimRight(host, "/"), Model: model, http: &http.Client{Timeout: 20 * time.Second}}
}

// Analyze asks a local vision model to score the faces in image.
func (c *Client) Analyze(ctx context.Context, image []byte) ([]emotion.Scores, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}
	payload := map[string]any{
		"model": c.Model,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": "Rate the faces in this photo.", "images": []string{base64.StdEncoding.EncodeToString(image)}},
		},
		"format": "json",
		"stream": false,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	var reply struct {
		Faces []ai.FaceScores `json:"faces"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.Message.Content)), &reply); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	scores := make([]emotion.Scores, 0, len(reply.Faces))
	for _, f := range reply.Faces {
		scores = append(scores, f.Scores())
	}
	return scores, nil
}
