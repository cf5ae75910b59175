package model

import "erp-backend/internal/apperr"

// Domain errors raised by entity mutators. Codes are i18n message ids.
var (
	ErrInvalidTransition   = apperr.Rule("invalid_transition", "invalid status transition")
	ErrInsufficientStock   = apperr.Rule("insufficient_stock", "insufficient stock available")
	ErrBelowReserved       = apperr.Rule("below_reserved", "physical quantity cannot go below reserved quantity")
	ErrInvalidQuantity     = apperr.Validation("invalid_quantity", "quantity must be positive")
	ErrInvalidPrice        = apperr.Validation("invalid_price", "price cannot be negative")
	ErrInvalidStatus       = apperr.Validation("invalid_status", "unknown status")
	ErrQuoteNotEditable    = apperr.Rule("quote_not_editable", "quote cannot be edited in its current status")
	ErrOrderNotEditable    = apperr.Rule("order_not_editable", "order can only be edited while draft")
	ErrNoLines             = apperr.Rule("no_lines", "document has no lines")
	ErrQuoteNotAccepted    = apperr.Rule("quote_not_accepted", "only accepted quotes can be converted")
	ErrOverReceipt         = apperr.Rule("over_receipt", "received quantity exceeds remaining quantity")
	ErrPaymentExceeds      = apperr.Rule("payment_exceeds_balance", "payment exceeds invoice balance")
	ErrInvoiceHasPayments  = apperr.Rule("invoice_has_payments", "invoice has payments")
	ErrInvoiceNotMatched   = apperr.Rule("invoice_not_matched", "supplier invoice must be matched before approval")
	ErrPurchaseHasReceipts = apperr.Rule("purchase_has_receipts", "purchase order already has receipts")
)
