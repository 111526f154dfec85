package appdirs

import (
	"path/filepath"
	"strings"
)

const (
	TaskRootName   = "tasks"
	UploadRootName = "uploads"
)

// TaskRoot returns the directory holding per-task working directories.
func TaskRoot(workDir string) string {
	return filepath.Join(normalizeWorkDir(workDir), TaskRootName)
}

// TaskDir returns the working directory for one task.
func TaskDir(workDir, taskID string) string {
	return filepath.Join(TaskRoot(workDir), taskID)
}

// UploadRoot returns the directory where uploaded source media lands.
func UploadRoot(workDir string) string {
	return filepath.Join(normalizeWorkDir(workDir), UploadRootName)
}

func normalizeWorkDir(workDir string) string {
	cleaned := strings.TrimSpace(workDir)
	if cleaned == "" {
		return "data"
	}
	return filepath.Clean(cleaned)
}
