package model

import "time"

// Status values a transferencia moves through. The remote logistics service
// is the only writer of this field; this backend never advances it locally.
const (
	StatusSolicitada = "SOLICITADA"
	StatusAprobada   = "APROBADA"
	StatusRechazada  = "RECHAZADA"
	StatusCompletada = "COMPLETADA"
)

// TransferenciaItem is one product line inside a transferencia.
type TransferenciaItem struct {
	ProductID int64    `json:"productId"`
	Quantity  int      `json:"quantity"`
	Series    []string `json:"series,omitempty"`
}

// Transferencia is a request to move product stock from one
// (sede, almacén) pair to another.
type Transferencia struct {
	ID                        int64               `json:"id"`
	OriginHeadquartersID      string              `json:"originHeadquartersId"`
	OriginWarehouseID         int64               `json:"originWarehouseId"`
	DestinationHeadquartersID string              `json:"destinationHeadquartersId"`
	DestinationWarehouseID    int64               `json:"destinationWarehouseId"`
	Items                     []TransferenciaItem `json:"items"`
	Observation               *string             `json:"observation"`
	Status                    string              `json:"status"`
	CreatorUserID             int64               `json:"creatorUserId"`
	ApproveUserID             *int64              `json:"approveUserId"`
	RejectionReason           *string             `json:"rejectionReason,omitempty"`
	RequestDate               *time.Time          `json:"requestDate"`
	ResponseDate              *time.Time          `json:"responseDate"`
	CompletionDate            *time.Time          `json:"completionDate"`
	TotalQuantity             int                 `json:"totalQuantity"`
}

// SumQuantities recomputes the total from the item lines. The backend sends
// totalQuantity precomputed; this is the local cross-check.
func (t *Transferencia) SumQuantities() int {
	total := 0
	for _, item := range t.Items {
		total += item.Quantity
	}
	return total
}

// IsTerminal reports whether the transferencia can no longer change status.
func (t *Transferencia) IsTerminal() bool {
	return t.Status == StatusRechazada || t.Status == StatusCompletada
}
