package types

import "time"

// ClipTask statuses
const (
	ClipTaskStatusProcessing uint8 = iota + 1
	ClipTaskStatusSuccess
	ClipTaskStatusFailed
)

// ClipTask is the locally persisted record of one pipeline run.
type ClipTask struct {
	Id         int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	TaskId     string    `json:"task_id" gorm:"uniqueIndex;size:64"`
	ProjectId  string    `json:"project_id" gorm:"index;size:64"`
	ProfileId  string    `json:"profile_id" gorm:"size:64"`
	VideoSrc   string    `json:"video_src"`
	Status     uint8     `json:"status"`
	StatusMsg  string    `json:"status_msg"`
	FailReason string    `json:"fail_reason"`
	ProcessPct uint8     `json:"process_percent"`
	SrtPath    string    `json:"srt_path"`
	ClipCount  int       `json:"clip_count"`
	ResultJson string    `json:"-"` // marshaled []ClipMeta for completed tasks
	CreateTime time.Time `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime time.Time `json:"update_time" gorm:"autoUpdateTime"`
}

// ClipTaskStepParam carries the mutable state of one pipeline run between steps.
type ClipTaskStepParam struct {
	TaskId        string
	TaskPtr       *ClipTask
	TaskBasePath  string
	InputFilePath string
	ProjectId     string
	ProfileId     string

	Duration      float64
	WindowSeconds float64
	MinWords      int
	MaxClips      int

	Transcript    Transcript
	Scenes        []Scene
	SelectedClips []SelectedClip
	ClipMetas     []ClipMeta
	SrtLocalPath  string
	SrtObjectKey  string
}
