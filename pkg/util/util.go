package util

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const randCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandStringWithUpperLowerNum returns a random alphanumeric string of
// length n, safe for use in file names and object keys.
func GenerateRandStringWithUpperLowerNum(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(randCharset)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte(randCharset[i%len(randCharset)])
			continue
		}
		sb.WriteByte(randCharset[idx.Int64()])
	}
	return sb.String()
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizePathName replaces characters that are unsafe in file names or break
// ffmpeg argument handling.
func SanitizePathName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafePathChars.ReplaceAllString(name, "_")
	return name
}

// ExtractJSON returns the largest JSON value embedded in LLM output, stripping
// a markdown code fence when present.
func ExtractJSON(text string) string {
	if m := regexp.MustCompile("(?s)```(?:json)?(.*?)```").FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return strings.TrimSpace(text)
	}
	end := strings.LastIndexAny(text, "}]")
	if end <= start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}
