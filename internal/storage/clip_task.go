package storage

import (
	"errors"

	"clipgen/internal/types"

	"gorm.io/gorm"
)

func SaveTask(task *types.ClipTask) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	// Upsert by TaskId: the primary key is internal, the task id is what the
	// pipeline carries around.
	var existing types.ClipTask
	result := DB.Where("task_id = ?", task.TaskId).First(&existing)

	if result.Error == nil {
		task.Id = existing.Id
		return DB.Save(task).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(task).Error
	}
	return result.Error
}

func GetTask(taskId string) (*types.ClipTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var task types.ClipTask
	if err := DB.Where("task_id = ?", taskId).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTaskHistory(limit int) ([]types.ClipTask, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var tasks []types.ClipTask
	if err := DB.Order("create_time desc").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func DeleteTask(taskId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("task_id = ?", taskId).Delete(&types.ClipTask{}).Error
}

// MarkStaleTasks marks all tasks still "processing" as failed. Called on server
// startup to clean up tasks interrupted by a restart.
func MarkStaleTasks() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.ClipTask{}).
		Where("status = ?", types.ClipTaskStatusProcessing).
		Updates(map[string]interface{}{
			"status":      types.ClipTaskStatusFailed,
			"fail_reason": "task interrupted by server restart",
			"status_msg":  "Interrupted",
		})
	return result.RowsAffected, result.Error
}
