package service

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"erp-backend/internal/export"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// percent reports whether d lies in [0, 100].
func percent(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseDecimal reads an optional decimal cell; a comma separator is accepted.
func parseDecimal(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return nil, ErrValidation.WithParams(map[string]any{"Field": s, "Tag": "decimal"})
	}
	return &d, nil
}

func render(table export.Table, format export.Format, name string) (*export.File, error) {
	file, err := export.Render(table, format, name)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return nil, ErrUnsupportedFormat.WithParams(map[string]any{"Format": string(format)})
	}
	return file, internal(err)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
