package domain

// Task is an admin-defined reward task
type Task struct {
	ID          uint    `gorm:"primaryKey"`       // Primary key
	Slug        string  `gorm:"uniqueIndex;size:64;not null"` // Stable task identifier
	Title       string  `gorm:"size:255;not null"` // Display title
	Description string  `gorm:"size:1024"`        // Display description
	Reward      float64 `gorm:"not null"`         // KCODE awarded on completion
	Active      bool    `gorm:"default:true"`     // Inactive tasks cannot be completed
	CreatedAt   int64   `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}

// TaskCompletion records that a user completed a task (once per task)
type TaskCompletion struct {
	ID        uint  `gorm:"primaryKey"`                              // Primary key
	UserID    uint  `gorm:"not null;uniqueIndex:idx_task_user"`      // User who completed the task
	TaskID    uint  `gorm:"not null;uniqueIndex:idx_task_user"`      // Completed task
	CreatedAt int64 `gorm:"autoCreateTime:milli"`                    // Timestamp of creation in milliseconds
}
