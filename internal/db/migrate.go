package db

import (
	"kcode_backend/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(
		&domain.User{},                 // Users and cached balances
		&domain.KcodeTransaction{},     // KCODE ledger
		&domain.PointsTransaction{},    // Points ledger
		&domain.DailyRitual{},          // Daily ritual completions
		&domain.Task{},                 // Reward tasks
		&domain.TaskCompletion{},       // Task completions
		&domain.SpinResult{},           // Wheel outcomes
		&domain.RewardEvent{},          // Referral distribution intents
		&domain.SocialLink{},           // Verified social accounts
		&domain.OAuthState{},           // OAuth CSRF states
		&domain.WaitlistRegistration{}, // Waitlist signups
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
