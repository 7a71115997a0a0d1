package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAI is a chat-completions extraction backend.
type OpenAI struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		apiKey: apiKey,
		model:  model,
		url:    openAIChatURL,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Complete(ctx context.Context, msgs []Message) (string, error) {
	payload := chatRequest{
		Model:       o.model,
		Messages:    make([]chatMessage, 0, len(msgs)),
		Temperature: 0.1,
		MaxTokens:   2000,
	}
	for _, m := range msgs {
		payload.Messages = append(payload.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 45 * time.Second

	var content string
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(data))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm server error %d: %s", resp.StatusCode, truncate(body))
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("llm request rejected %d: %s", resp.StatusCode, truncate(body))
			return backoff.Permanent(lastErr)
		}
		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			lastErr = fmt.Errorf("decode llm response: %w", err)
			return lastErr
		}
		if len(parsed.Choices) == 0 {
			lastErr = fmt.Errorf("llm response has no choices")
			return lastErr
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return "", lastErr
	}
	return content, nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 400 {
		s = s[:400]
	}
	return s
}
