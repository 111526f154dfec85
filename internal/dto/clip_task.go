package dto

import "clipgen/internal/types"

// StartClipTaskReq submits one video for clip generation. FilePath is either a
// server-local path (prefixed "local:") or an object key in the uploads
// bucket; ProfileId marks the file as profile-scoped, requiring a signed
// download URL.
type StartClipTaskReq struct {
	FilePath  string `json:"file_path" binding:"required"`
	ProjectId string `json:"project_id"`
	ProfileId string `json:"profile_id"`

	// optional per-task overrides; zero means use the configured default
	MinWords      int     `json:"min_words"`
	MaxClips      int     `json:"max_clips"`
	WindowSeconds float64 `json:"window_seconds"`
}

type StartClipTaskResData struct {
	TaskId    string `json:"task_id"`
	ProjectId string `json:"project_id"`
}

type StartClipTaskRes struct {
	Error int32                 `json:"error"`
	Msg   string                `json:"msg"`
	Data  *StartClipTaskResData `json:"data"`
}

type GetClipTaskReq struct {
	TaskId string `form:"taskId" binding:"required"`
}

type GetClipTaskResData struct {
	TaskId         string           `json:"task_id"`
	ProjectId      string           `json:"project_id"`
	ProcessPercent uint8            `json:"process_percent"`
	Status         string           `json:"status"`
	StatusMsg      string           `json:"status_msg"`
	FailReason     string           `json:"fail_reason,omitempty"`
	ClipCount      int              `json:"clip_count"`
	Clips          []types.ClipMeta `json:"clips,omitempty"`
}

type GetClipTaskRes struct {
	Error int32               `json:"error"`
	Msg   string              `json:"msg"`
	Data  *GetClipTaskResData `json:"data"`
}

type TaskHistoryItem struct {
	TaskId     string `json:"task_id"`
	ProjectId  string `json:"project_id"`
	VideoSrc   string `json:"video_src"`
	Status     string `json:"status"`
	StatusMsg  string `json:"status_msg"`
	ClipCount  int    `json:"clip_count"`
	CreateTime string `json:"create_time"`
}

type TaskHistoryResData struct {
	Tasks []TaskHistoryItem `json:"tasks"`
}

type TaskHistoryRes struct {
	Error int32               `json:"error"`
	Msg   string              `json:"msg"`
	Data  *TaskHistoryResData `json:"data"`
}

type UploadFileResData struct {
	FilePath string `json:"file_path"`
}

type UploadFileRes struct {
	Error int32              `json:"error"`
	Msg   string             `json:"msg"`
	Data  *UploadFileResData `json:"data"`
}
