package types

// TranscriptEntry is one time-annotated unit of recognized speech. Depending on
// what the ASR backend offers, an entry is either a single word or a coarser
// segment; the granularity is uniform within one run.
type TranscriptEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is ordered by Start. Entries may overlap or have zero duration
// (model noise); consumers must tolerate both.
type Transcript []TranscriptEntry

// Scene is a half-open time interval judged visually coherent by boundary
// detection. Scenes in a list are non-overlapping and chronologically ordered.
type Scene struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the scene length in seconds.
func (s Scene) Duration() float64 {
	return s.End - s.Start
}

// SelectedClip is a scene accepted by the selector, annotated with the word
// density that qualified it and its position in the accepted sequence.
type SelectedClip struct {
	Scene     Scene `json:"scene"`
	WordCount int   `json:"word_count"`
	Rank      int   `json:"rank"`
}

// RenderedArtifact points at the local files produced for one clip. The files
// are temporary: ownership transfers to the persistence adapter at upload, which
// removes them once the upload is confirmed.
type RenderedArtifact struct {
	VideoPath     string
	ThumbnailPath string
	Start         float64
	End           float64
}

// ClipMeta is the persisted clip row echoed back to the caller.
type ClipMeta struct {
	ProjectID    string   `json:"project_id"`
	FileURL      string   `json:"file_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Transcript   string   `json:"transcript"`
	Title        string   `json:"title,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	Start        float64  `json:"start_time"`
	End          float64  `json:"end_time"`
}

// Project lifecycle states mirrored into the external projects table.
const (
	ProjectStatusProcessing = "processing"
	ProjectStatusCompleted  = "completed"
	ProjectStatusFailed     = "failed"
)

// PipelineResult is the aggregate outcome returned to the caller.
type PipelineResult struct {
	Clips  []ClipMeta `json:"clips"`
	Status string     `json:"status"` // "ready" on success
}

const PipelineStatusReady = "ready"
