package openai

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/log"
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(baseUrl, apiKey, model, proxyAddr string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}

	transport := &http.Transport{}
	if proxyAddr != "" {
		transport.Proxy = http.ProxyURL(config.Conf.App.ParsedProxy)
	}
	// no client timeout, completions on slow upstreams can run for minutes
	cfg.HTTPClient = &http.Client{
		Transport: transport,
	}

	return &Client{client: openai.NewClientWithConfig(cfg), model: model}
}

// ChatCompletion sends a single-turn prompt and returns the raw completion
// text.
func (c *Client) ChatCompletion(prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		log.GetLogger().Error("chat completion request failed", zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		log.GetLogger().Warn("chat completion returned no choices")
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
