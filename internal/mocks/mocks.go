// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clipgen/internal/types"
)

// MockTranscriber is a mock implementation of types.Transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioFile string) ([]types.TranscriptEntry, error) {
	args := m.Called(ctx, audioFile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TranscriptEntry), args.Error(1)
}

// MockSceneSegmenter is a mock implementation of types.SceneSegmenter
type MockSceneSegmenter struct {
	mock.Mock
}

func (m *MockSceneSegmenter) DetectScenes(ctx context.Context, videoPath string) ([]types.Scene, error) {
	args := m.Called(ctx, videoPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Scene), args.Error(1)
}

// MockClipRenderer is a mock implementation of types.ClipRenderer
type MockClipRenderer struct {
	mock.Mock
}

func (m *MockClipRenderer) Render(ctx context.Context, videoPath, outputDir string, clip types.SelectedClip) (*types.RenderedArtifact, error) {
	args := m.Called(ctx, videoPath, outputDir, clip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RenderedArtifact), args.Error(1)
}

// MockObjectStore is a mock implementation of types.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) CreateSignedUploadURL(ctx context.Context, bucket, key string) (string, error) {
	args := m.Called(ctx, bucket, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) CreateSignedDownloadURL(ctx context.Context, bucket, key string, expiresIn int) (string, error) {
	args := m.Called(ctx, bucket, key, expiresIn)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) UploadToSignedURL(ctx context.Context, bucket, key, token string, data []byte, contentType string) error {
	args := m.Called(ctx, bucket, key, token, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) InsertRow(ctx context.Context, table string, fields map[string]any) (string, error) {
	args := m.Called(ctx, table, fields)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) UpdateRow(ctx context.Context, table, id string, fields map[string]any) error {
	args := m.Called(ctx, table, id, fields)
	return args.Error(0)
}

// MockChatCompleter is a mock implementation of types.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) ChatCompletion(prompt string) (string, error) {
	args := m.Called(prompt)
	return args.String(0), args.Error(1)
}
