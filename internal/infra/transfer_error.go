package infra

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
)

// StockConflict is the insufficient-stock tuple a 409 response carries.
// The authoritative conflict signal is the status code; this tuple is a
// best-effort secondary channel for highlighting the offending line.
type StockConflict struct {
	Requested   int   `json:"requested"`
	Available   int   `json:"available"`
	ProductID   int64 `json:"productId"`
	WarehouseID int64 `json:"warehouseId"`
}

// TransferAPIError is the single error shape every failed call against the
// logistics transfer service is normalized into. Status 0 means the service
// was unreachable (network failure or open circuit).
type TransferAPIError struct {
	Status         int
	Message        string
	BackendMessage string
	Conflict       *StockConflict
}

func (e *TransferAPIError) Error() string {
	if e.BackendMessage != "" {
		return fmt.Sprintf("transfer api: %s (status %d: %s)", e.Message, e.Status, e.BackendMessage)
	}
	return fmt.Sprintf("transfer api: %s (status %d)", e.Message, e.Status)
}

// IsConflict reports whether this error is a stock-reservation conflict,
// regardless of whether the tuple could be parsed.
func (e *TransferAPIError) IsConflict() bool {
	return e.Status == http.StatusConflict
}

// conflictPattern matches the legacy textual conflict format, e.g.
// "requested 5, available 2 for productId 42 in warehouse 3".
var conflictPattern = regexp.MustCompile(`requested (\d+), available (\d+) for productId (\d+) in warehouse (\d+)`)

// parseConflictMessage extracts the conflict tuple from a backend message.
// Returns nil when the wording does not match — the caller still reports a
// conflict by status code, just without the per-line detail.
func parseConflictMessage(msg string) *StockConflict {
	m := conflictPattern.FindStringSubmatch(msg)
	if m == nil {
		return nil
	}
	requested, _ := strconv.Atoi(m[1])
	available, _ := strconv.Atoi(m[2])
	productID, _ := strconv.ParseInt(m[3], 10, 64)
	warehouseID, _ := strconv.ParseInt(m[4], 10, 64)
	return &StockConflict{
		Requested:   requested,
		Available:   available,
		ProductID:   productID,
		WarehouseID: warehouseID,
	}
}

// normalizeTransferError maps an HTTP status + backend message into the
// user-facing taxonomy. The generic fallback mirrors the admin UI wording.
func normalizeTransferError(status int, backendMsg string, conflict *StockConflict) *TransferAPIError {
	var msg string
	switch {
	case status == 0:
		msg = "Sin conexión con el servicio de transferencias."
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		msg = "No autorizado para operar transferencias. Vuelva a iniciar sesión."
	case status == http.StatusNotFound:
		msg = "La transferencia solicitada no existe."
	case status == http.StatusConflict:
		if conflict == nil {
			conflict = parseConflictMessage(backendMsg)
		}
		if conflict != nil {
			msg = fmt.Sprintf(
				"Stock insuficiente para el producto %d en el almacén %d: solicitado %d, disponible %d.",
				conflict.ProductID, conflict.WarehouseID, conflict.Requested, conflict.Available,
			)
		} else {
			msg = "Stock insuficiente para completar la transferencia."
		}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		msg = "El servicio rechazó la solicitud de transferencia."
		if backendMsg != "" {
			msg += " " + backendMsg
		}
	default:
		msg = "No se pudo completar la operación de transferencias."
	}

	return &TransferAPIError{
		Status:         status,
		Message:        msg,
		BackendMessage: backendMsg,
		Conflict:       conflict,
	}
}
