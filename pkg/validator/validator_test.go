package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type sample struct {
	ID       uuid.UUID       `validate:"uuid_required"`
	Quantity decimal.Decimal `validate:"gt=0"`
	Discount decimal.Decimal `validate:"gte=0,lte=100"`
}

func TestValidateStructDecimalsAndUUID(t *testing.T) {
	ok := sample{ID: uuid.New(), Quantity: decimal.NewFromInt(2), Discount: decimal.NewFromInt(5)}
	if errs := ValidateStruct(ok); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs[0])
	}

	bad := sample{Quantity: decimal.Zero, Discount: decimal.NewFromInt(120)}
	errs := ValidateStruct(bad)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(errs))
	}
	if errs[0].Tag != "uuid_required" {
		t.Fatalf("expected uuid_required first, got %s", errs[0].Tag)
	}
}
