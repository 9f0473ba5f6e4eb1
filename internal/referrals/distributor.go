package referrals

import (
	"context"       // Context for chain calls
	"encoding/json" // Ledger metadata encoding
	"fmt"           // Memo formatting
	"math"          // Reward rounding
	"time"          // UTC day boundary

	"kcode_backend/internal/chain"  // On-chain issuer
	"kcode_backend/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Reward propagation constants
const (
	MaxLevels     = 3    // Referral chain depth cap
	DailyCapKcode = 10.0 // Per-referrer cap on referral rewards per UTC day
)

// Percentage of the earned amount paid at each level
var levelPercentages = [MaxLevels + 1]float64{0, 5, 3, 1}

// Distributor propagates a share of earned KCODE up the referral chain
type Distributor struct {
	db     *gorm.DB     // User store and ledger
	issuer chain.Issuer // On-chain reward issuer
}

// NewDistributor wires the distributor with its store and issuer
func NewDistributor(db *gorm.DB, issuer chain.Issuer) *Distributor {
	return &Distributor{db: db, issuer: issuer}
}

// resolvedReferrer is one ancestor in the chain with its distance from the earner
type resolvedReferrer struct {
	user  domain.User // The referrer record
	level int         // 1, 2 or 3
}

// Payout describes one successful referral payment
type Payout struct {
	ReferrerID uint    // Paid referrer
	Level      int     // Chain level
	Amount     float64 // KCODE paid
	TxHash     string  // On-chain transaction
}

// ledgerMetadata is stored on every referral_reward ledger row
type ledgerMetadata struct {
	ReferredUserID uint    `json:"referred_user_id"` // The earner the reward derives from
	ReferredWallet string  `json:"referred_wallet"`  // Earner wallet address
	ActivityType   string  `json:"activity_type"`    // What the earner did
	AmountEarned   float64 `json:"amount_earned"`    // Original amount earned
	Level          int     `json:"level"`            // Chain level paid
	Percentage     float64 `json:"percentage"`       // Percentage applied
}

// Distribute propagates rewards for one earning event to up to three
// ancestor referrers. The eventKey makes re-invocation a no-op: the intent
// row is claimed before any payment. Downstream failures are logged and
// skipped per referrer; the function is best-effort and never returns an
// error for them.
func (d *Distributor) Distribute(ctx context.Context, eventKey string, userID uint, amountEarned float64, activityType string) []Payout {
	// Nothing to propagate
	if amountEarned <= 0 {
		return nil
	}
	// Claim the intent row first. The unique event key rejects duplicates,
	// so a second invocation for the same event pays nothing.
	event := domain.RewardEvent{
		EventKey:     eventKey,     // Idempotency token
		UserID:       userID,       // The earner
		AmountEarned: amountEarned, // Original amount
		ActivityType: activityType, // Audit label
		Status:       domain.RewardEventPending,
	}
	if err := d.db.Create(&event).Error; err != nil {
		// Duplicate key or store failure; either way do not pay
		logrus.WithFields(logrus.Fields{
			"event_key": eventKey, // Claimed token
			"user_id":   userID,   // Earner
			"error":     err.Error(),
		}).Info("Referral distribution skipped (event already claimed or store error)")
		return nil
	}
	var earner domain.User // The user who earned the reward
	if err := d.db.First(&earner, userID).Error; err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Referral distribution: earner lookup failed")
		return nil
	}
	referrers := d.resolveChain(&earner) // Walk up to three ancestors
	payouts := make([]Payout, 0, len(referrers))
	for _, r := range referrers {
		if p, ok := d.payReferrer(ctx, &earner, r, amountEarned, activityType); ok {
			payouts = append(payouts, p) // Record the successful payout
		}
	}
	// Mark the event done; the intent row stays as the audit trail
	if err := d.db.Model(&event).Update("status", domain.RewardEventCompleted).Error; err != nil {
		logrus.WithFields(logrus.Fields{"event_key": eventKey, "error": err.Error()}).Warn("Referral distribution: event status update failed")
	}
	return payouts
}

// resolveChain follows referred_by_code pointers upward. A code that does
// not resolve truncates the walk; that is not an error.
func (d *Distributor) resolveChain(earner *domain.User) []resolvedReferrer {
	if earner.ReferredByCode == nil {
		return nil // No referrer chain
	}
	code := *earner.ReferredByCode // Start at the direct referrer
	resolved := make([]resolvedReferrer, 0, MaxLevels)
	for level := 1; level <= MaxLevels; level++ {
		var referrer domain.User // Resolve the code to a user
		if err := d.db.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
			break // Broken chain truncates propagation
		}
		resolved = append(resolved, resolvedReferrer{user: referrer, level: level})
		if referrer.ReferredByCode == nil {
			break // Top of the chain
		}
		code = *referrer.ReferredByCode // Continue upward
	}
	return resolved
}

// payReferrer computes, caps, issues and records one referrer's reward.
// Every failure logs and returns false; the caller continues with the next
// referrer.
func (d *Distributor) payReferrer(ctx context.Context, earner *domain.User, r resolvedReferrer, amountEarned float64, activityType string) (Payout, bool) {
	pct := levelPercentages[r.level]               // Configured percentage for this level
	reward := Round4(amountEarned * pct / 100)     // 4-decimal reward amount
	log := logrus.WithFields(logrus.Fields{
		"referrer_id": r.user.ID,    // Who would be paid
		"level":       r.level,      // Chain level
		"reward":      reward,       // Computed amount
		"activity":    activityType, // Originating activity
	})
	if reward <= 0 {
		return Payout{}, false // Nothing to pay at this level
	}
	// Enforce the per-referrer daily cap over today's referral_reward rows
	paidToday, err := d.paidToday(r.user.ID)
	if err != nil {
		log.WithField("error", err.Error()).Error("Referral payout: daily cap query failed")
		return Payout{}, false
	}
	if paidToday+reward > DailyCapKcode {
		log.WithField("paid_today", paidToday).Info("Referral payout skipped: daily cap reached")
		return Payout{}, false // No partial award
	}
	// Issue the on-chain transfer
	memo := fmt.Sprintf("referral L%d (%s)", r.level, activityType)
	txHash, err := d.issuer.RewardUserWithKcode(ctx, r.user.WalletAddress, reward, memo)
	if err != nil {
		log.WithField("error", err.Error()).Error("Referral payout: on-chain transfer failed")
		return Payout{}, false // Failure is isolated to this referrer
	}
	// Update cached balances and append the ledger row together
	meta, _ := json.Marshal(ledgerMetadata{
		ReferredUserID: earner.ID,            // Originating earner
		ReferredWallet: earner.WalletAddress, // Earner wallet
		ActivityType:   activityType,         // Originating activity
		AmountEarned:   amountEarned,         // Original amount
		Level:          r.level,              // Chain level
		Percentage:     pct,                  // Percentage applied
	})
	err = d.db.Transaction(func(tx *gorm.DB) error {
		// Credit the referrer's cached totals
		if err := tx.Model(&domain.User{}).Where("id = ?", r.user.ID).Updates(map[string]any{
			"total_kcode":   gorm.Expr("total_kcode + ?", reward),
			"tokens_minted": gorm.Expr("tokens_minted + ?", reward),
		}).Error; err != nil {
			return err // Return error to rollback
		}
		// Append the audit ledger row
		row := domain.KcodeTransaction{
			UserID:      r.user.ID,                  // Paid referrer
			Amount:      reward,                     // KCODE paid
			Type:        domain.TxTypeReferralReward, // Ledger type
			Description: memo,                       // Audit label
			TxHash:      txHash,                     // On-chain transaction
			Metadata:    string(meta),               // Structured audit metadata
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		// The transfer already happened; the ledger diverged. Log loudly.
		log.WithFields(logrus.Fields{"tx_hash": txHash, "error": err.Error()}).Error("Referral payout: ledger write failed after transfer")
		return Payout{}, false
	}
	log.WithField("tx_hash", txHash).Info("Referral payout")
	return Payout{ReferrerID: r.user.ID, Level: r.level, Amount: reward, TxHash: txHash}, true
}

// paidToday sums the referrer's referral_reward ledger rows for the current UTC day
func (d *Distributor) paidToday(referrerID uint) (float64, error) {
	now := time.Now().UTC() // UTC calendar day per the cap definition
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
	var sum float64
	err := d.db.Model(&domain.KcodeTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND created_at >= ?", referrerID, domain.TxTypeReferralReward, dayStart).
		Scan(&sum).Error
	return sum, err
}

// Round4 rounds to 4 decimal places
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
