package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/model"
)

// Acting-role hints attached to every call. Authorization is enforced by the
// logistics service itself — these headers are hints, not a security boundary.
const (
	RoleAdministrador = "ADMINISTRADOR"
	RoleJefeAlmacen   = "JEFE DE ALMACEN"
)

const (
	headerRole          = "X-Role"
	headerOperationMode = "X-Operation-Mode"
	operationAggregated = "aggregated"
)

type tokenCtxKey struct{}

// ContextWithToken propagates the caller's bearer credential to outbound
// transfer service calls.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext returns the bearer credential stored by ContextWithToken,
// or "" when the context carries none.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenCtxKey{}).(string)
	return token
}

type roleCtxKey struct{}

// ContextWithRole propagates the caller's resolved acting role so shared
// components can attach it to read calls issued on the caller's behalf.
func ContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

// RoleFromContext returns the acting role stored by ContextWithRole, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleCtxKey{}).(string)
	return role
}

// transferErrorBody is what the logistics service puts in a non-2xx body.
// The structured conflict field is preferred; older deployments only send
// the textual message (parsed best-effort in transfer_error.go).
type transferErrorBody struct {
	Message  string         `json:"message"`
	Detail   string         `json:"detail"`
	Conflict *StockConflict `json:"conflict"`
}

// TransferClient is the stateless translation layer between domain operations
// and the remote logistics transfer service. It is the only place that knows
// the wire shape; every failure comes back as a *TransferAPIError.
type TransferClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

// NewTransferClient builds a client for the given base URL
// (e.g. "http://logistics:9000/logistics/warehouse").
func NewTransferClient(baseURL string, timeout time.Duration, cb *CircuitBreaker) *TransferClient {
	return &TransferClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cb:         cb,
	}
}

// RequestAggregated submits a new multi-item transfer.
// POST /transfer/request, X-Operation-Mode: aggregated.
func (c *TransferClient) RequestAggregated(ctx context.Context, req dto.SolicitarTransferenciaRequest, role string) (*model.Transferencia, error) {
	return c.doTransfer(ctx, http.MethodPost, "/transfer/request", req, role, true)
}

// Approve transitions SOLICITADA → APROBADA. PATCH /transfer/{id}/approve.
func (c *TransferClient) Approve(ctx context.Context, id int64, req dto.AprobarTransferenciaRequest, role string) (*model.Transferencia, error) {
	return c.doTransfer(ctx, http.MethodPatch, fmt.Sprintf("/transfer/%d/approve", id), req, role, true)
}

// Reject transitions SOLICITADA → RECHAZADA. The reason is mandatory and
// checked locally before any network traffic.
func (c *TransferClient) Reject(ctx context.Context, id int64, req dto.RechazarTransferenciaRequest, role string) (*model.Transferencia, error) {
	if req.Reason == "" {
		return nil, &TransferAPIError{
			Status:  http.StatusUnprocessableEntity,
			Message: "El motivo de rechazo es obligatorio.",
		}
	}
	return c.doTransfer(ctx, http.MethodPatch, fmt.Sprintf("/transfer/%d/reject", id), req, role, true)
}

// ConfirmReceipt transitions APROBADA → COMPLETADA. PATCH /transfer/{id}/confirm-receipt.
func (c *TransferClient) ConfirmReceipt(ctx context.Context, id int64, req dto.ConfirmarRecepcionRequest, role string) (*model.Transferencia, error) {
	return c.doTransfer(ctx, http.MethodPatch, fmt.Sprintf("/transfer/%d/confirm-receipt", id), req, role, true)
}

// GetByID fetches a single transfer. GET /transfer/{id}.
func (c *TransferClient) GetByID(ctx context.Context, id int64, role string) (*model.Transferencia, error) {
	return c.doTransfer(ctx, http.MethodGet, fmt.Sprintf("/transfer/%d", id), nil, role, false)
}

// ListAll fetches every transfer visible to the caller. GET /transfer.
func (c *TransferClient) ListAll(ctx context.Context, role string) ([]model.Transferencia, error) {
	var out []model.Transferencia
	if err := c.do(ctx, http.MethodGet, "/transfer", nil, role, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByHeadquarters fetches the transfers visible to one sede.
// GET /transfer/headquarters/{hqId}.
func (c *TransferClient) ListByHeadquarters(ctx context.Context, hqID string, role string) ([]model.Transferencia, error) {
	var out []model.Transferencia
	if err := c.do(ctx, http.MethodGet, "/transfer/headquarters/"+hqID, nil, role, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransferClient) doTransfer(ctx context.Context, method, path string, body interface{}, role string, write bool) (*model.Transferencia, error) {
	var out model.Transferencia
	if err := c.do(ctx, method, path, body, role, write, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one exchange against the logistics service through the circuit
// breaker and decodes a 2xx body into result. Any other outcome is returned
// as a *TransferAPIError.
func (c *TransferClient) do(ctx context.Context, method, path string, body interface{}, role string, write bool, result interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &TransferAPIError{Status: 0, Message: "No se pudo serializar la solicitud.", BackendMessage: err.Error()}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransferAPIError{Status: 0, Message: "No se pudo construir la solicitud.", BackendMessage: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRole, role)
	if write {
		req.Header.Set(headerOperationMode, operationAggregated)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var resp *http.Response
	cbErr := c.cb.Execute(func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		return doErr
	})
	if cbErr != nil {
		// Open circuit and transport failures both surface as "no connection".
		return normalizeTransferError(0, cbErr.Error(), nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.readError(resp)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &TransferAPIError{
			Status:         resp.StatusCode,
			Message:        "Respuesta inválida del servicio de transferencias.",
			BackendMessage: err.Error(),
		}
	}
	return nil
}

// readError normalizes a non-2xx response. The body may be the structured
// envelope, a bare JSON string, or plain text — all three occur in the wild.
func (c *TransferClient) readError(resp *http.Response) *TransferAPIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	backendMsg := string(bytes.TrimSpace(raw))
	var conflict *StockConflict

	var envelope transferErrorBody
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			backendMsg = envelope.Message
		} else if envelope.Detail != "" {
			backendMsg = envelope.Detail
		}
		conflict = envelope.Conflict
	} else {
		var plain string
		if json.Unmarshal(raw, &plain) == nil && plain != "" {
			backendMsg = plain
		}
	}

	return normalizeTransferError(resp.StatusCode, backendMsg, conflict)
}
