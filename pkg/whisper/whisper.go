// Package whisper wraps the OpenAI-compatible audio transcription endpoint.
// Timestamps in the returned entries are local to the submitted file.
package whisper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"clipgen/config"
	"clipgen/internal/types"
	"clipgen/log"
)

type Transcriber struct {
	client *openai.Client
	model  string
}

func NewTranscriber(baseUrl, apiKey, model, proxyAddr string) *Transcriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}

	transport := &http.Transport{}
	if proxyAddr != "" {
		transport.Proxy = http.ProxyURL(config.Conf.App.ParsedProxy)
	}
	cfg.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   10 * time.Minute,
	}

	return &Transcriber{client: openai.NewClientWithConfig(cfg), model: model}
}

// Transcribe requests a verbose transcription with word-level timestamps and
// falls back to segment-level entries when the backend does not return words.
func (t *Transcriber) Transcribe(ctx context.Context, audioFile string) ([]types.TranscriptEntry, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioFile,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		log.GetLogger().Error("transcription request failed",
			zap.String("file", audioFile), zap.Error(err))
		return nil, err
	}
	return entriesFromResponse(resp), nil
}

func entriesFromResponse(resp openai.AudioResponse) []types.TranscriptEntry {
	if len(resp.Words) > 0 {
		entries := make([]types.TranscriptEntry, 0, len(resp.Words))
		for _, w := range resp.Words {
			word := strings.TrimSpace(w.Word)
			if word == "" {
				continue
			}
			entries = append(entries, types.TranscriptEntry{
				Start: w.Start,
				End:   w.End,
				Text:  word,
			})
		}
		return entries
	}

	entries := make([]types.TranscriptEntry, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		entries = append(entries, types.TranscriptEntry{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	return entries
}
