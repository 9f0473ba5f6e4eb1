package referrals

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"kcode_backend/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeIssuer records reward calls and can fail for chosen wallets
type fakeIssuer struct {
	calls   []issuedCall
	failFor map[string]error
}

type issuedCall struct {
	to     string
	amount float64
	memo   string
}

func (f *fakeIssuer) RewardUserWithKcode(_ context.Context, to string, amount float64, memo string) (string, error) {
	if err, ok := f.failFor[to]; ok {
		return "", err
	}
	f.calls = append(f.calls, issuedCall{to: to, amount: amount, memo: memo})
	return fmt.Sprintf("0xtx%d", len(f.calls)), nil
}

func (f *fakeIssuer) BurnAndTransferKcode(_ context.Context, to string, amount float64) (string, error) {
	return "0xburn", nil
}

func (f *fakeIssuer) BalanceOf(_ context.Context, address string) (float64, error) {
	return 0, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.KcodeTransaction{}, &domain.RewardEvent{}))
	return db
}

func mkUser(t *testing.T, db *gorm.DB, wallet, code string, referredBy *string) domain.User {
	t.Helper()
	u := domain.User{WalletAddress: wallet, ReferralCode: code, ReferredByCode: referredBy}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// Builds earner -> l1 -> l2 -> l3 and returns them in that order
func mkChain(t *testing.T, db *gorm.DB) (domain.User, domain.User, domain.User, domain.User) {
	t.Helper()
	l3 := mkUser(t, db, "0xl3", "CODEL3", nil)
	l2 := mkUser(t, db, "0xl2", "CODEL2", &l3.ReferralCode)
	l1 := mkUser(t, db, "0xl1", "CODEL1", &l2.ReferralCode)
	earner := mkUser(t, db, "0xearner", "CODEE1", &l1.ReferralCode)
	return earner, l1, l2, l3
}

func TestDistributeThreeLevelChain(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	earner, l1, l2, l3 := mkChain(t, db)

	d := NewDistributor(db, issuer)
	payouts := d.Distribute(context.Background(), "evt-1", earner.ID, 100, "daily_ritual")

	require.Len(t, payouts, 3)
	require.Equal(t, 5.0, payouts[0].Amount)
	require.Equal(t, 3.0, payouts[1].Amount)
	require.Equal(t, 1.0, payouts[2].Amount)

	// Total propagated is 9% of the original amount
	total := 0.0
	for _, p := range payouts {
		total += p.Amount
	}
	require.LessOrEqual(t, total, 100*0.09)

	// Each referrer got a ledger row of the right type and amount
	for i, want := range []struct {
		user   domain.User
		amount float64
	}{{l1, 5}, {l2, 3}, {l3, 1}} {
		var row domain.KcodeTransaction
		require.NoError(t, db.Where("user_id = ?", want.user.ID).First(&row).Error, "level %d", i+1)
		require.Equal(t, domain.TxTypeReferralReward, row.Type)
		require.Equal(t, want.amount, row.Amount)
		require.NotEmpty(t, row.TxHash)
		require.Contains(t, row.Metadata, `"activity_type":"daily_ritual"`)
		require.Contains(t, row.Metadata, fmt.Sprintf(`"level":%d`, i+1))

		// Cached totals were updated
		var fresh domain.User
		require.NoError(t, db.First(&fresh, want.user.ID).Error)
		require.Equal(t, want.amount, fresh.TotalKcode)
		require.Equal(t, want.amount, fresh.TokensMinted)
	}

	// The intent row is marked completed
	var event domain.RewardEvent
	require.NoError(t, db.Where("event_key = ?", "evt-1").First(&event).Error)
	require.Equal(t, domain.RewardEventCompleted, event.Status)
}

func TestDistributeNoReferrer(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	earner := mkUser(t, db, "0xalone", "CODEA1", nil)

	d := NewDistributor(db, issuer)
	payouts := d.Distribute(context.Background(), "evt-2", earner.ID, 100, "task")

	require.Empty(t, payouts)
	require.Empty(t, issuer.calls)
	var count int64
	require.NoError(t, db.Model(&domain.KcodeTransaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDistributeBrokenChainAtLevelTwo(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	ghost := "GHOST1" // No user owns this code
	l1 := mkUser(t, db, "0xl1", "CODEL1", &ghost)
	earner := mkUser(t, db, "0xearner", "CODEE1", &l1.ReferralCode)

	d := NewDistributor(db, issuer)
	payouts := d.Distribute(context.Background(), "evt-3", earner.ID, 100, "task")

	require.Len(t, payouts, 1)
	require.Equal(t, 1, payouts[0].Level)
	require.Equal(t, 5.0, payouts[0].Amount)
	require.Len(t, issuer.calls, 1)
}

func TestDistributeDailyCapSkipsWholeReward(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	earner, l1, _, _ := mkChain(t, db)

	// l1 already earned 9.5 KCODE from referrals today; 9.5 + 5 > 10
	require.NoError(t, db.Create(&domain.KcodeTransaction{
		UserID: l1.ID, Amount: 9.5, Type: domain.TxTypeReferralReward,
	}).Error)

	d := NewDistributor(db, issuer)
	payouts := d.Distribute(context.Background(), "evt-4", earner.ID, 100, "task")

	// l1 skipped entirely (no partial award), l2 and l3 still paid
	require.Len(t, payouts, 2)
	require.Equal(t, 2, payouts[0].Level)
	require.Equal(t, 3, payouts[1].Level)
	var l1Rows int64
	require.NoError(t, db.Model(&domain.KcodeTransaction{}).
		Where("user_id = ? AND amount <> 9.5", l1.ID).Count(&l1Rows).Error)
	require.Zero(t, l1Rows)
}

func TestDistributeCapAccumulatesAcrossEvents(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	earner, l1, _, _ := mkChain(t, db)

	d := NewDistributor(db, issuer)
	// Each event pays l1 5 KCODE; the third would cross the 10/day cap
	require.Len(t, d.Distribute(context.Background(), "evt-a", earner.ID, 100, "task"), 3)
	require.Len(t, d.Distribute(context.Background(), "evt-b", earner.ID, 100, "task"), 3)
	payouts := d.Distribute(context.Background(), "evt-c", earner.ID, 100, "task")
	for _, p := range payouts {
		require.NotEqual(t, l1.ID, p.ReferrerID)
	}
}

func TestDistributeOnChainFailureIsIsolated(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{failFor: map[string]error{"0xl1": errors.New("revert")}}
	earner, l1, l2, l3 := mkChain(t, db)

	d := NewDistributor(db, issuer)
	payouts := d.Distribute(context.Background(), "evt-5", earner.ID, 100, "task")

	require.Len(t, payouts, 2)
	require.Equal(t, l2.ID, payouts[0].ReferrerID)
	require.Equal(t, l3.ID, payouts[1].ReferrerID)

	// The failed referrer got no ledger row
	var count int64
	require.NoError(t, db.Model(&domain.KcodeTransaction{}).Where("user_id = ?", l1.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDistributeDuplicateEventIsNoOp(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	earner, _, _, _ := mkChain(t, db)

	d := NewDistributor(db, issuer)
	first := d.Distribute(context.Background(), "evt-6", earner.ID, 100, "task")
	second := d.Distribute(context.Background(), "evt-6", earner.ID, 100, "task")

	require.Len(t, first, 3)
	require.Empty(t, second)
	require.Len(t, issuer.calls, 3) // No double payment

	var count int64
	require.NoError(t, db.Model(&domain.KcodeTransaction{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestDistributeZeroRewardSkipped(t *testing.T) {
	db := newTestDB(t)
	issuer := &fakeIssuer{}
	earner, _, _, _ := mkChain(t, db)

	d := NewDistributor(db, issuer)
	// Every level's share of 0.0001 rounds to zero; nobody is paid
	payouts := d.Distribute(context.Background(), "evt-7", earner.ID, 0.0001, "task")
	require.Empty(t, payouts)
	require.Empty(t, issuer.calls)
}

func TestRound4(t *testing.T) {
	require.Equal(t, 1.6667, Round4(33.3333*5/100))
	require.Equal(t, 0.0, Round4(0.00001))
	require.Equal(t, 5.0, Round4(100*5/100.0))
	require.Equal(t, 0.0333, Round4(3.33*1/100))
}
