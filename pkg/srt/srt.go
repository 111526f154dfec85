// Package srt serializes transcripts to the SubRip subtitle exchange format and
// parses them back. The emitted layout is byte-exact `.srt`: sequential blocks of
// index, "HH:MM:SS,mmm --> HH:MM:SS,mmm" range and text, separated by blank lines.
package srt

import (
	"fmt"
	"strconv"
	"strings"

	"clipgen/internal/types"
)

// Format renders the transcript as SRT content, 1-indexed, millisecond precision.
func Format(transcript types.Transcript) string {
	blocks := make([]string, 0, len(transcript))
	for i, entry := range transcript {
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			i+1, FormatTimestamp(entry.Start), FormatTimestamp(entry.End), entry.Text))
	}
	return strings.Join(blocks, "\n")
}

// FormatTimestamp converts seconds to the SRT "HH:MM:SS,mmm" form.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds*1000 + 0.5)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	h := totalSec / 3600
	m := (totalSec % 3600) / 60
	s := totalSec % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp converts "HH:MM:SS,mmm" back to seconds.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q: %w", ts, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

// Parse reads SRT content back into a transcript. Block indices are validated
// for presence, not for sequence; downstream only needs the timed text.
func Parse(content string) (types.Transcript, error) {
	var transcript types.Transcript

	content = strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.SplitN(block, "\n", 3)
		if len(lines) < 3 {
			return nil, fmt.Errorf("malformed srt block: %q", block)
		}
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err != nil {
			return nil, fmt.Errorf("invalid srt block index %q: %w", lines[0], err)
		}
		rangeParts := strings.Split(lines[1], "-->")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid srt time range %q", lines[1])
		}
		start, err := ParseTimestamp(rangeParts[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(rangeParts[1])
		if err != nil {
			return nil, err
		}
		transcript = append(transcript, types.TranscriptEntry{
			Start: start,
			End:   end,
			Text:  strings.TrimRight(lines[2], "\n"),
		})
	}
	return transcript, nil
}
