package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Event key building

	"kcode_backend/internal/domain"  // Importing domain models
	"kcode_backend/internal/rewards" // KCODE credit service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// ListTasksHandler returns all active tasks with the user's completion state
func ListTasksHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var tasks []domain.Task // Active tasks
		if err := db.Where("active = ?", true).Order("id").Find(&tasks).Error; err != nil {
			respondErr(c, http.StatusInternalServerError, "Failed to fetch tasks")
			return
		}
		var done []domain.TaskCompletion // The user's completions
		if err := db.Where("user_id = ?", userID).Find(&done).Error; err != nil {
			respondErr(c, http.StatusInternalServerError, "Failed to fetch completions")
			return
		}
		completed := make(map[uint]bool, len(done)) // Completed task ids
		for _, d := range done {
			completed[d.TaskID] = true
		}
		// Shape the listing
		type taskView struct {
			domain.Task      // Task fields
			Completed   bool `json:"completed"` // Whether this user finished it
		}
		out := make([]taskView, len(tasks))
		for i, t := range tasks {
			out[i] = taskView{Task: t, Completed: completed[t.ID]}
		}
		respondOK(c, http.StatusOK, gin.H{"tasks": out}) // Return the listing
	}
}

// CompleteTaskRequest identifies the task being claimed
type CompleteTaskRequest struct {
	TaskSlug string `json:"task_slug" binding:"required"` // Stable task identifier
}

// CompleteTaskHandler claims a task reward: once per task, credits KCODE,
// then fans out referral rewards.
func CompleteTaskHandler(db *gorm.DB, rdb *redis.Client, svc *rewards.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req CompleteTaskRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		var task domain.Task // Resolve the task
		if err := db.Where("slug = ?", req.TaskSlug).First(&task).Error; err != nil {
			// Unknown task, return not found
			respondErr(c, http.StatusNotFound, "Task not found")
			return
		}
		// Inactive tasks cannot be completed
		if !task.Active {
			respondErr(c, http.StatusBadRequest, "Task is not active")
			return
		}
		var user domain.User // Load the earner
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		var existing domain.TaskCompletion // One completion per task
		if err := db.Where("user_id = ? AND task_id = ?", user.ID, task.ID).First(&existing).Error; err == nil {
			// Already completed, return conflict
			respondErr(c, http.StatusBadRequest, "Task already completed")
			return
		}
		completion := domain.TaskCompletion{UserID: user.ID, TaskID: task.ID}
		// Record the completion; the unique index rejects a concurrent double claim
		if err := db.Create(&completion).Error; err != nil {
			respondErr(c, http.StatusBadRequest, "Task already completed")
			return
		}
		// Primary effect: the earner's own KCODE credit
		eventKey := "task:" + strconv.Itoa(int(user.ID)) + ":" + strconv.Itoa(int(task.ID))
		row, err := svc.Credit(c.Request.Context(), &user, task.Reward, domain.TxTypeTaskReward, "task: "+task.Slug, eventKey)
		if err != nil {
			// Roll back the completion marker so the user can retry
			if delErr := db.Delete(&completion).Error; delErr != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": user.ID,        // Affected user
					"task_id": task.ID,        // Claimed task
					"error":   delErr.Error(), // Rollback failure
				}).Error("Task rollback failed")
			}
			respondErr(c, http.StatusInternalServerError, "Reward credit failed")
			return
		}
		invalidateUserCaches(rdb, user.ID) // Balances changed
		// Return the completion and its ledger row
		respondOK(c, http.StatusOK, gin.H{
			"task":        task,       // The claimed task
			"completion":  completion, // Completion record
			"transaction": row,        // KCODE ledger row
		})
	}
}
