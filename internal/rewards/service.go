package rewards

import (
	"context" // Context for chain calls

	"kcode_backend/internal/chain"     // On-chain issuer
	"kcode_backend/internal/domain"    // Importing domain models
	"kcode_backend/internal/referrals" // Referral fan-out

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Service credits KCODE for earning actions and fans out referral rewards.
// The user's own credit is must-succeed; the referral fan-out is best-effort.
type Service struct {
	db          *gorm.DB                // User store and ledger
	issuer      chain.Issuer            // On-chain reward issuer
	distributor *referrals.Distributor  // Referral fan-out
}

// NewService wires the reward service
func NewService(db *gorm.DB, issuer chain.Issuer, distributor *referrals.Distributor) *Service {
	return &Service{db: db, issuer: issuer, distributor: distributor}
}

// Credit mints KCODE to the user, records the ledger row, and then runs the
// referral distribution keyed by eventKey. Returns the ledger row on success.
func (s *Service) Credit(ctx context.Context, user *domain.User, amount float64, txType, description, eventKey string) (*domain.KcodeTransaction, error) {
	// Primary effect: the user's own on-chain credit
	txHash, err := s.issuer.RewardUserWithKcode(ctx, user.WalletAddress, amount, description)
	if err != nil {
		return nil, err // The earning action fails with the transfer
	}
	row := domain.KcodeTransaction{
		UserID:      user.ID,     // Recipient
		Amount:      amount,      // KCODE credited
		Type:        txType,      // Earning action type
		Description: description, // Audit label
		TxHash:      txHash,      // On-chain transaction
	}
	// Record cached totals and the ledger row together
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"total_kcode":   gorm.Expr("total_kcode + ?", amount),
			"tokens_minted": gorm.Expr("tokens_minted + ?", amount),
		}).Error; err != nil {
			return err // Return error to rollback
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		// The transfer already happened; there is no way to roll it back.
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,     // Credited user
			"amount":  amount,      // KCODE amount
			"tx_hash": txHash,      // Submitted transaction
			"error":   err.Error(), // Store failure
		}).Error("KCODE credit: ledger write failed after transfer")
		return nil, err
	}
	// Log the credit with context
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID, // Credited user
		"amount":  amount,  // KCODE amount
		"type":    txType,  // Earning action type
		"tx_hash": txHash,  // Submitted transaction
	}).Info("KCODE credit")
	// Secondary effect: referral fan-out, best-effort by contract
	s.distributor.Distribute(ctx, eventKey, user.ID, amount, txType)
	return &row, nil
}
