package repository

import (
	"context"
	"fmt"
	"time"

	"erp-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document number prefixes.
const (
	PrefixQuote           = "QUO"
	PrefixOrder           = "SO"
	PrefixInvoice         = "INV"
	PrefixPayment         = "PAY"
	PrefixPurchaseRequest = "PR"
	PrefixPurchaseOrder   = "PO"
	PrefixReceipt         = "GR"
	PrefixSupplierInvoice = "SI"
)

type SequenceRepository interface {
	// NextNumber returns the next document number for prefix, e.g. SO-2026-00001.
	NextNumber(ctx context.Context, prefix string) (string, error)
}

type sequenceRepo struct {
	db *gorm.DB
}

func NewSequenceRepo(db *gorm.DB) SequenceRepository {
	return &sequenceRepo{db}
}

func (r *sequenceRepo) NextNumber(ctx context.Context, prefix string) (string, error) {
	key := fmt.Sprintf("%s-%d", prefix, time.Now().Year())
	var number int64
	err := RunInTx(ctx, r.db, func(ctx context.Context) error {
		tx := txFrom(ctx, r.db)
		seq := model.DocumentSequence{Prefix: key, Next: 1}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq, "prefix = ?", key).Error; err != nil {
			return err
		}
		number = seq.Next
		return tx.Model(&model.DocumentSequence{}).Where("prefix = ?", key).
			Update("next", gorm.Expr("next + 1")).Error
	})
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%05d", key, number), nil
}
