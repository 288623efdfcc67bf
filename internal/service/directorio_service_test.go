package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirectorioClient(t *testing.T, handler http.HandlerFunc) *DirectorioClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDirectorioClient(srv.URL, 2*time.Second, nil)
}

func TestListSedes(t *testing.T) {
	var path, role string
	client := newDirectorioClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, role = r.URL.Path, r.Header.Get("X-Role")
		_ = json.NewEncoder(w).Encode([]dto.SedeDTO{
			{ID: "HQ-1", Nombre: "Sede Central", Activo: true},
			{ID: "HQ-2", Nombre: "Sede Norte", Activo: true},
		})
	})

	sedes, err := client.ListSedes(context.Background(), infra.RoleAdministrador)
	require.NoError(t, err)
	require.Len(t, sedes, 2)
	assert.Equal(t, "/admin/headquarters", path)
	assert.Equal(t, infra.RoleAdministrador, role)
	assert.Equal(t, "Sede Central", sedes[0].Nombre)
}

func TestListAlmacenes(t *testing.T) {
	client := newDirectorioClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logistics/warehouses", r.URL.Path)
		_ = json.NewEncoder(w).Encode(dto.AlmacenListResponse{
			Warehouses: []dto.AlmacenDTO{{ID: 1, SedeID: "HQ-1", Nombre: "Principal", Activo: true}},
			Total:      1,
		})
	})

	resp, err := client.ListAlmacenes(context.Background(), infra.RoleJefeAlmacen)
	require.NoError(t, err)
	require.Len(t, resp.Warehouses, 1)
	assert.Equal(t, "HQ-1", resp.Warehouses[0].SedeID)
}

func TestGetProducto(t *testing.T) {
	var auth string
	client := newDirectorioClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/products/7", r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(dto.ProductoDTO{
			ID:             7,
			Nombre:         "Teclado inalámbrico",
			PrecioUnitario: decimal.NewFromFloat(149.90),
			StockActual:    12,
		})
	})

	ctx := infra.ContextWithToken(context.Background(), "tok-abc")
	producto, err := client.GetProducto(ctx, 7, infra.RoleJefeAlmacen)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", auth)
	assert.Equal(t, "Teclado inalámbrico", producto.Nombre)
	assert.True(t, producto.PrecioUnitario.Equal(decimal.NewFromFloat(149.90)))
}

func TestDirectorioNon200IsError(t *testing.T) {
	client := newDirectorioClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ListSedes(context.Background(), infra.RoleAdministrador)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 503")
}

func TestDirectorioUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewDirectorioClient(srv.URL, time.Second, nil)

	_, err := client.GetProducto(context.Background(), 7, infra.RoleJefeAlmacen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
