// Package invoicing defines the port for the external invoicing subsystem.
package invoicing

import "context"

// LineItem is one line of a draft invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
}

// DraftRequest asks the invoicing subsystem to create a draft invoice.
type DraftRequest struct {
	ClientID string     `json:"client_id"`
	Currency string     `json:"currency"`
	Items    []LineItem `json:"items"`
}

// Draft is the created draft invoice reference returned by the subsystem.
type Draft struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// Issuer creates draft invoices in the external invoicing subsystem.
type Issuer interface {
	CreateDraft(ctx context.Context, req DraftRequest) (*Draft, error)
}
