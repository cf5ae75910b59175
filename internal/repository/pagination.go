package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is the 1-based page asked for by a list query.
type PageRequest struct {
	Page     int `json:"page" query:"page"`
	PageSize int `json:"page_size" query:"page_size"`
}

// Normalize clamps page to >= 1 and page size to [1, MaxPageSize].
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Page is the list envelope returned by every paginated query.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Paginate counts q, then loads the requested window into a Page. Preloads are
// applied to the window query only.
func Paginate[T any](q *gorm.DB, req PageRequest, preloads ...string) (Page[T], error) {
	req = req.Normalize()
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}
	items := make([]T, 0)
	window := q.Session(&gorm.Session{})
	for _, p := range preloads {
		window = window.Preload(p)
	}
	if err := window.Offset(req.Offset()).Limit(req.PageSize).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}
	totalPages := int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	return Page[T]{
		Items: items,
		Pagination: Pagination{
			Total:      total,
			Page:       req.Page,
			PageSize:   req.PageSize,
			TotalPages: totalPages,
		},
	}, nil
}

// IsNotFound hides gorm's sentinel from callers.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

type ctxKey struct{}

// txFrom returns the transaction stored by WithTx in ctx, or db bound to ctx.
func txFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ctxKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// WithTx stores tx in ctx so repository calls made with that ctx join the transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, ctxKey{}, tx)
}

// RunInTx runs fn inside a transaction carried by ctx. When ctx already holds
// one, fn joins it instead of opening a nested transaction.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(ctxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
