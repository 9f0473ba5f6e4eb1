package rewards

import (
	"context"
	"errors"
	"testing"

	"kcode_backend/internal/domain"
	"kcode_backend/internal/referrals"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingIssuer struct {
	fail  bool
	calls int
}

func (r *recordingIssuer) RewardUserWithKcode(_ context.Context, to string, amount float64, memo string) (string, error) {
	if r.fail {
		return "", errors.New("revert")
	}
	r.calls++
	return "0xabc", nil
}

func (r *recordingIssuer) BurnAndTransferKcode(_ context.Context, to string, amount float64) (string, error) {
	return "0xburn", nil
}

func (r *recordingIssuer) BalanceOf(_ context.Context, address string) (float64, error) {
	return 0, nil
}

func newService(t *testing.T, issuer *recordingIssuer) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.KcodeTransaction{}, &domain.RewardEvent{}))
	return NewService(db, issuer, referrals.NewDistributor(db, issuer)), db
}

func TestCreditWritesLedgerAndTotals(t *testing.T) {
	issuer := &recordingIssuer{}
	svc, db := newService(t, issuer)

	referrer := domain.User{WalletAddress: "0xref", ReferralCode: "REFCODE"}
	require.NoError(t, db.Create(&referrer).Error)
	user := domain.User{WalletAddress: "0xuser", ReferralCode: "USRCODE", ReferredByCode: &referrer.ReferralCode}
	require.NoError(t, db.Create(&user).Error)

	row, err := svc.Credit(context.Background(), &user, 2.0, domain.TxTypeRitualReward, "daily ritual (keter)", "ritual:1:2026-08-29")
	require.NoError(t, err)
	require.Equal(t, 2.0, row.Amount)
	require.Equal(t, "0xabc", row.TxHash)

	var fresh domain.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	require.Equal(t, 2.0, fresh.TotalKcode)
	require.Equal(t, 2.0, fresh.TokensMinted)

	// The referral fan-out ran: the referrer earned 5% of 2.0
	var refRow domain.KcodeTransaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", referrer.ID, domain.TxTypeReferralReward).First(&refRow).Error)
	require.Equal(t, 0.1, refRow.Amount)
}

func TestCreditFailsWhenTransferFails(t *testing.T) {
	issuer := &recordingIssuer{fail: true}
	svc, db := newService(t, issuer)

	user := domain.User{WalletAddress: "0xuser", ReferralCode: "USRCODE"}
	require.NoError(t, db.Create(&user).Error)

	_, err := svc.Credit(context.Background(), &user, 2.0, domain.TxTypeRitualReward, "daily ritual", "evt")
	require.Error(t, err)

	// Nothing was recorded
	var count int64
	require.NoError(t, db.Model(&domain.KcodeTransaction{}).Count(&count).Error)
	require.Zero(t, count)
	var fresh domain.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	require.Zero(t, fresh.TotalKcode)
}
