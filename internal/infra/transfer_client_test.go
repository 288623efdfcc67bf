package infra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *TransferClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTransferClient(srv.URL, 2*time.Second, NewCircuitBreaker(DefaultCBConfig()))
}

func solicitarFixture() dto.SolicitarTransferenciaRequest {
	return dto.SolicitarTransferenciaRequest{
		OriginHeadquartersID:      "HQ-1",
		OriginWarehouseID:         1,
		DestinationHeadquartersID: "HQ-2",
		DestinationWarehouseID:    4,
		UserID:                    22,
		Items:                     []dto.ItemTransferenciaRequest{{ProductID: 7, Quantity: 3}},
	}
}

func TestRequestAggregatedSendsProtocolHeaders(t *testing.T) {
	var got *http.Request
	var body dto.SolicitarTransferenciaRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.Transferencia{ID: 501, Status: model.StatusSolicitada})
	})

	ctx := ContextWithToken(context.Background(), "tok-abc")
	created, err := client.RequestAggregated(ctx, solicitarFixture(), RoleJefeAlmacen)
	require.NoError(t, err)
	assert.Equal(t, int64(501), created.ID)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/transfer/request", got.URL.Path)
	assert.Equal(t, RoleJefeAlmacen, got.Header.Get("X-Role"))
	assert.Equal(t, "aggregated", got.Header.Get("X-Operation-Mode"))
	assert.Equal(t, "Bearer tok-abc", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))

	assert.Equal(t, "HQ-1", body.OriginHeadquartersID)
	require.Len(t, body.Items, 1)
	assert.Equal(t, int64(7), body.Items[0].ProductID)
}

func TestTransitionEndpoints(t *testing.T) {
	cases := []struct {
		name     string
		call     func(c *TransferClient) (*model.Transferencia, error)
		wantPath string
	}{
		{
			name: "approve",
			call: func(c *TransferClient) (*model.Transferencia, error) {
				return c.Approve(context.Background(), 501, dto.AprobarTransferenciaRequest{UserID: 1}, RoleAdministrador)
			},
			wantPath: "/transfer/501/approve",
		},
		{
			name: "reject",
			call: func(c *TransferClient) (*model.Transferencia, error) {
				return c.Reject(context.Background(), 501, dto.RechazarTransferenciaRequest{UserID: 1, Reason: "stock audit mismatch"}, RoleAdministrador)
			},
			wantPath: "/transfer/501/reject",
		},
		{
			name: "confirm receipt",
			call: func(c *TransferClient) (*model.Transferencia, error) {
				return c.ConfirmReceipt(context.Background(), 501, dto.ConfirmarRecepcionRequest{UserID: 2}, RoleAdministrador)
			},
			wantPath: "/transfer/501/confirm-receipt",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var method, path, role string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				method, path, role = r.Method, r.URL.Path, r.Header.Get("X-Role")
				_ = json.NewEncoder(w).Encode(model.Transferencia{ID: 501})
			})

			_, err := tc.call(client)
			require.NoError(t, err)
			assert.Equal(t, http.MethodPatch, method)
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, RoleAdministrador, role)
		})
	}
}

func TestRejectEmptyReasonNeverReachesNetwork(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.Reject(context.Background(), 501, dto.RechazarTransferenciaRequest{UserID: 1}, RoleAdministrador)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "El motivo de rechazo es obligatorio.", apiErr.Message)
}

func TestListEndpoints(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewEncoder(w).Encode([]model.Transferencia{{ID: 1}, {ID: 2}})
	})

	list, err := client.ListAll(context.Background(), RoleAdministrador)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "/transfer", path)

	list, err = client.ListByHeadquarters(context.Background(), "HQ-1", RoleAdministrador)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "/transfer/headquarters/HQ-1", path)
}

func TestGetByIDNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"transfer 9999 not found"}`))
	})

	_, err := client.GetByID(context.Background(), 9999, RoleAdministrador)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "La transferencia solicitada no existe.", apiErr.Message)
	assert.Equal(t, "transfer 9999 not found", apiErr.BackendMessage)
}

func TestConflictStructuredBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"insufficient stock","conflict":{"requested":5,"available":2,"productId":42,"warehouseId":3}}`))
	})

	_, err := client.RequestAggregated(context.Background(), solicitarFixture(), RoleJefeAlmacen)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	require.NotNil(t, apiErr.Conflict)
	assert.Equal(t, &StockConflict{Requested: 5, Available: 2, ProductID: 42, WarehouseID: 3}, apiErr.Conflict)
	assert.Equal(t, "Stock insuficiente para el producto 42 en el almacén 3: solicitado 5, disponible 2.", apiErr.Message)
}

func TestConflictLegacyTextBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`"requested 5, available 2 for productId 42 in warehouse 3"`))
	})

	_, err := client.RequestAggregated(context.Background(), solicitarFixture(), RoleJefeAlmacen)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.Conflict)
	assert.Equal(t, int64(42), apiErr.Conflict.ProductID)
	assert.Equal(t, int64(3), apiErr.Conflict.WarehouseID)
	assert.Equal(t, 5, apiErr.Conflict.Requested)
	assert.Equal(t, 2, apiErr.Conflict.Available)
}

func TestConflictUnparseableBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("no hay stock"))
	})

	_, err := client.RequestAggregated(context.Background(), solicitarFixture(), RoleJefeAlmacen)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	assert.Nil(t, apiErr.Conflict)
	assert.Equal(t, "Stock insuficiente para completar la transferencia.", apiErr.Message)
	assert.Equal(t, "no hay stock", apiErr.BackendMessage)
}

func TestUnauthorizedMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListAll(context.Background(), RoleAdministrador)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "No autorizado para operar transferencias. Vuelva a iniciar sesión.", apiErr.Message)
}

func TestValidationMessageCarriesBackendDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"origin warehouse is empty"}`))
	})

	_, err := client.RequestAggregated(context.Background(), solicitarFixture(), RoleJefeAlmacen)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "El servicio rechazó la solicitud de transferencia. origin warehouse is empty", apiErr.Message)
}

func TestConnectivityFailureIsStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nobody listening on that port anymore
	client := NewTransferClient(srv.URL, time.Second, NewCircuitBreaker(DefaultCBConfig()))

	_, err := client.ListAll(context.Background(), RoleAdministrador)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "Sin conexión con el servicio de transferencias.", apiErr.Message)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})
	client := NewTransferClient(srv.URL, time.Second, cb)

	for i := 0; i < 3; i++ {
		_, err := client.ListAll(context.Background(), RoleAdministrador)
		require.Error(t, err)
	}
	assert.Equal(t, CBOpen, cb.State())

	// Subsequent calls fast-fail without touching the network; the error
	// still reads as a connectivity failure.
	_, err := client.ListAll(context.Background(), RoleAdministrador)
	var apiErr *TransferAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
}

func TestHTTPErrorsDoNotTripCircuit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	for i := 0; i < 10; i++ {
		_, err := client.RequestAggregated(context.Background(), solicitarFixture(), RoleJefeAlmacen)
		require.Error(t, err)
	}
	// A reachable service answering 4xx is not an availability problem.
	assert.Equal(t, CBClosed, client.cb.State())
}

func TestParseConflictMessage(t *testing.T) {
	conflict := parseConflictMessage("requested 12, available 0 for productId 8 in warehouse 1")
	require.NotNil(t, conflict)
	assert.Equal(t, 12, conflict.Requested)
	assert.Equal(t, 0, conflict.Available)
	assert.Equal(t, int64(8), conflict.ProductID)
	assert.Equal(t, int64(1), conflict.WarehouseID)

	assert.Nil(t, parseConflictMessage("insufficient stock"))
	assert.Nil(t, parseConflictMessage(""))
}

func TestTransferAPIErrorIs(t *testing.T) {
	err := normalizeTransferError(http.StatusConflict, "requested 5, available 2 for productId 42 in warehouse 3", nil)
	var apiErr *TransferAPIError
	require.True(t, errors.As(error(err), &apiErr))
	assert.True(t, apiErr.IsConflict())

	plain := normalizeTransferError(http.StatusInternalServerError, "boom", nil)
	assert.False(t, plain.IsConflict())
	assert.Equal(t, "No se pudo completar la operación de transferencias.", plain.Message)
}
