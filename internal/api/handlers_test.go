package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kcode_backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.KcodeTransaction{}, &domain.Task{},
		&domain.TaskCompletion{}, &domain.WaitlistRegistration{},
	))
	return db
}

// runJSON drives a handler with a JSON body and an optional session user id
func runJSON(t *testing.T, handler gin.HandlerFunc, method string, body any, userID any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	c.Request = httptest.NewRequest(method, "/", &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != nil {
		c.Set("userID", userID)
	}
	handler(c)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestWaitlistHandler(t *testing.T) {
	db := newTestDB(t)
	handler := WaitlistHandler(db)

	w, resp := runJSON(t, handler, http.MethodPost, gin.H{"email": "Seeker@Example.com"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, true, resp["success"])

	// Stored lowercased and unique
	var reg domain.WaitlistRegistration
	require.NoError(t, db.First(&reg).Error)
	require.Equal(t, "seeker@example.com", reg.Email)

	w, resp = runJSON(t, handler, http.MethodPost, gin.H{"email": "seeker@example.com"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, resp["success"])

	w, _ = runJSON(t, handler, http.MethodPost, gin.H{"email": "not-an-email"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = runJSON(t, handler, http.MethodPost, gin.H{"email": "a@b.co", "wallet_address": "bogus"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTasksHandler(t *testing.T) {
	db := newTestDB(t)
	user := domain.User{WalletAddress: "0xuser", ReferralCode: "USRCODE"}
	require.NoError(t, db.Create(&user).Error)
	active := domain.Task{Slug: "join-us", Title: "Join", Reward: 5, Active: true}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&domain.Task{Slug: "old", Title: "Old", Reward: 1, Active: false}).Error)
	require.NoError(t, db.Create(&domain.TaskCompletion{UserID: user.ID, TaskID: active.ID}).Error)

	w, resp := runJSON(t, ListTasksHandler(db), http.MethodGet, gin.H{}, user.ID)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]any)
	tasks := data["tasks"].([]any)
	require.Len(t, tasks, 1) // Inactive tasks are hidden
	first := tasks[0].(map[string]any)
	require.Equal(t, true, first["completed"])
}

func TestReferralsHandler(t *testing.T) {
	db := newTestDB(t)
	user := domain.User{WalletAddress: "0xref", ReferralCode: "REFCODE"}
	require.NoError(t, db.Create(&user).Error)
	// Two signups used the code; one referral payout landed
	require.NoError(t, db.Create(&domain.User{WalletAddress: "0xa", ReferralCode: "AAAA2222", ReferredByCode: &user.ReferralCode}).Error)
	require.NoError(t, db.Create(&domain.User{WalletAddress: "0xb", ReferralCode: "BBBB2222", ReferredByCode: &user.ReferralCode}).Error)
	require.NoError(t, db.Create(&domain.KcodeTransaction{UserID: user.ID, Amount: 5, Type: domain.TxTypeReferralReward}).Error)
	require.NoError(t, db.Create(&domain.KcodeTransaction{UserID: user.ID, Amount: 2, Type: domain.TxTypeRitualReward}).Error)

	w, resp := runJSON(t, ReferralsHandler(db), http.MethodGet, gin.H{}, user.ID)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]any)
	require.Equal(t, "REFCODE", data["referral_code"])
	require.EqualValues(t, 2, data["direct_referrals"])
	require.EqualValues(t, 5, data["referral_earnings"]) // Only referral_reward rows count
}
