package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"clipgen/log"
	"clipgen/pkg/retry"
	"clipgen/pkg/util"
)

const clipMetadataPrompt = `Write a short, punchy title (max 8 words) and up to 4 hashtags for a social media clip with this transcript.
Reply with JSON only, in the form {"title": "...", "hashtags": ["#one", "#two"]}.

Transcript:
%TRANSCRIPT%`

const maxTitleTranscriptChars = 2000

type clipMetadata struct {
	Title    string   `json:"title"`
	Hashtags []string `json:"hashtags"`
}

// generateClipMetadata asks the LLM for a title and hashtags based on the clip
// transcript. Metadata is decoration, not data: any failure after retries
// returns an empty value and the clip is persisted without it.
func (s *Service) generateClipMetadata(transcript string) clipMetadata {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" || s.ChatCompleter == nil {
		return clipMetadata{}
	}
	transcript = truncateRunes(transcript, maxTitleTranscriptChars)

	prompt := strings.ReplaceAll(clipMetadataPrompt, "%TRANSCRIPT%", transcript)

	var meta clipMetadata
	err := retry.Default().Do(context.Background(), func() error {
		result, err := s.ChatCompleter.ChatCompletion(prompt)
		if err != nil {
			return err
		}
		meta = parseClipMetadata(result)
		return nil
	})
	if err != nil {
		log.GetLogger().Warn("clip metadata generation failed", zap.Error(err))
		return clipMetadata{}
	}
	return meta
}

// truncateRunes cuts s after at most n runes, never mid-rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// parseClipMetadata decodes the model reply, salvaging a non-JSON reply as a
// bare title.
func parseClipMetadata(reply string) clipMetadata {
	var meta clipMetadata
	if err := json.Unmarshal([]byte(util.ExtractJSON(reply)), &meta); err != nil {
		meta = clipMetadata{Title: reply}
	}
	meta.Title = strings.TrimSpace(strings.Trim(strings.TrimSpace(meta.Title), `"`))
	hashtags := meta.Hashtags[:0]
	for _, tag := range meta.Hashtags {
		if tag = strings.TrimSpace(tag); tag != "" {
			hashtags = append(hashtags, tag)
		}
	}
	meta.Hashtags = hashtags
	return meta
}
