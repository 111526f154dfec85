package types

import "context"

// Transcriber turns one audio file into time-annotated entries. Timestamps are
// local to the given file; window re-basing is the caller's concern.
type Transcriber interface {
	Transcribe(ctx context.Context, audioFile string) ([]TranscriptEntry, error)
}

// SceneSegmenter produces the normalized, ordered scene list for a video.
type SceneSegmenter interface {
	DetectScenes(ctx context.Context, videoPath string) ([]Scene, error)
}

// ClipRenderer materializes one selected clip into local video + thumbnail files.
type ClipRenderer interface {
	Render(ctx context.Context, videoPath, outputDir string, clip SelectedClip) (*RenderedArtifact, error)
}

// ObjectStore is the persistence adapter surface the pipeline consumes: a
// two-phase signed-upload protocol plus row-level table access. All calls are
// fallible remote calls; retry policy, if any, belongs to the adapter.
type ObjectStore interface {
	CreateSignedUploadURL(ctx context.Context, bucket, key string) (token string, err error)
	CreateSignedDownloadURL(ctx context.Context, bucket, key string, expiresIn int) (url string, err error)
	UploadToSignedURL(ctx context.Context, bucket, key, token string, data []byte, contentType string) error
	InsertRow(ctx context.Context, table string, fields map[string]any) (id string, err error)
	UpdateRow(ctx context.Context, table, id string, fields map[string]any) error
}

// ChatCompleter generates short texts (clip titles, hashtags).
type ChatCompleter interface {
	ChatCompletion(prompt string) (string, error)
}
