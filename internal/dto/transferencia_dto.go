package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemTransferenciaRequest is one product line of an aggregated transfer request.
type ItemTransferenciaRequest struct {
	ProductID int64    `json:"productId" validate:"required,gt=0"`
	Quantity  int      `json:"quantity"  validate:"required,gt=0"`
	Series    []string `json:"series,omitempty"`
}

// SolicitarTransferenciaRequest is the aggregated multi-item submission sent
// to POST /transfer/request. Observation is nullable on the wire; an empty
// string is normalized to null before submission. UserID may be omitted by
// the caller, in which case it is seeded from the authenticated session.
type SolicitarTransferenciaRequest struct {
	OriginHeadquartersID      string                     `json:"originHeadquartersId"      validate:"required"`
	OriginWarehouseID         int64                      `json:"originWarehouseId"         validate:"required,gt=0"`
	DestinationHeadquartersID string                     `json:"destinationHeadquartersId" validate:"required"`
	DestinationWarehouseID    int64                      `json:"destinationWarehouseId"    validate:"required,gt=0"`
	UserID                    int64                      `json:"userId"                    validate:"omitempty,gt=0"`
	Observation               *string                    `json:"observation"`
	Items                     []ItemTransferenciaRequest `json:"items" validate:"required,min=1,dive"`
}

// AprobarTransferenciaRequest carries the approving user.
type AprobarTransferenciaRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

// RechazarTransferenciaRequest carries the rejecting user and the mandatory reason.
type RechazarTransferenciaRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,min=1"`
}

// ConfirmarRecepcionRequest carries the user confirming physical receipt at destination.
type ConfirmarRecepcionRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

// ─── Error DTOs ──────────────────────────────────────────────────────────────

// ConflictoStockDTO is the structured insufficient-stock tuple surfaced on 409.
type ConflictoStockDTO struct {
	Requested   int   `json:"requested"`
	Available   int   `json:"available"`
	ProductID   int64 `json:"productId"`
	WarehouseID int64 `json:"warehouseId"`
}

// TransferenciaErrorResponse is the envelope the BFF returns when the
// logistics service rejects an operation. Conflict and ConflictProductID are
// only present for 409 responses so the UI can highlight the offending line.
type TransferenciaErrorResponse struct {
	Detail            string             `json:"detail"`
	BackendDetail     string             `json:"backend_detail,omitempty"`
	Conflict          *ConflictoStockDTO `json:"conflict,omitempty"`
	ConflictProductID *int64             `json:"conflict_product_id,omitempty"`
}
