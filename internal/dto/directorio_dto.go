package dto

import "github.com/shopspring/decimal"

// ─── Directory lookups (read-only collaborators) ────────────────────────────

// SedeDTO is one headquarters entry from GET /admin/headquarters.
type SedeDTO struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}

// AlmacenDTO is one warehouse entry from GET /logistics/warehouses.
type AlmacenDTO struct {
	ID     int64  `json:"id"`
	SedeID string `json:"sedeId"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}

// AlmacenListResponse mirrors the paginated warehouse listing of the
// logistics service.
type AlmacenListResponse struct {
	Warehouses []AlmacenDTO `json:"warehouses"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
}

// ProductoDTO is the product lookup used to render transfer lines
// (name, unit price, current availability at a warehouse).
type ProductoDTO struct {
	ID             int64           `json:"id"`
	Nombre         string          `json:"nombre"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	StockActual    int             `json:"stock_actual"`
}
