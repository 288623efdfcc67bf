package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/apierror"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/middleware"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// TransferenciasHandler exposes the transfer lifecycle to the admin UI. All
// state flows through the shared TransferStore; the handler only translates
// HTTP in and out.
type TransferenciasHandler struct {
	store *service.TransferStore
}

func NewTransferenciasHandler(store *service.TransferStore) *TransferenciasHandler {
	return &TransferenciasHandler{store: store}
}

// callerContext forwards the request's bearer token and resolved acting role
// to the outbound transfer calls.
func callerContext(c *gin.Context) context.Context {
	session := middleware.SessionFrom(c)
	ctx := infra.ContextWithToken(c.Request.Context(), session.Token)
	return infra.ContextWithRole(ctx, session.Role)
}

// Listar handles GET /v1/transferencias.
func (h *TransferenciasHandler) Listar(c *gin.Context) {
	list, err := h.store.LoadAll(callerContext(c))
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListarPorSede handles GET /v1/transferencias/sede/:hqId.
func (h *TransferenciasHandler) ListarPorSede(c *gin.Context) {
	hqID := c.Param("hqId")
	if hqID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Sede invalida"))
		return
	}
	list, err := h.store.LoadByHeadquarters(callerContext(c), hqID)
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ObtenerPorID handles GET /v1/transferencias/:id.
func (h *TransferenciasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	transfer, err := h.store.LoadByID(callerContext(c), id)
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// Solicitar handles POST /v1/transferencias: an aggregated multi-item
// submission. The payload is run through the same draft rules the
// interactive wizard enforces before anything touches the network.
func (h *TransferenciasHandler) Solicitar(c *gin.Context) {
	var req dto.SolicitarTransferenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	session := middleware.SessionFrom(c)
	if req.UserID == 0 {
		req.UserID = session.EffectiveUserID()
	}

	builder := service.NewDraftBuilder(service.StaticSession(session))
	builder.LoadRequest(req)
	payload, err := builder.BuildRequest()
	if err != nil {
		writeTransferError(c, err)
		return
	}

	created, err := h.store.CreateAggregated(callerContext(c), *payload)
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Aprobar handles PATCH /v1/transferencias/:id/aprobar.
func (h *TransferenciasHandler) Aprobar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AprobarTransferenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	updated, err := h.store.Approve(callerContext(c), id, req)
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Rechazar handles PATCH /v1/transferencias/:id/rechazar. The reason is
// mandatory — validated here and again by the protocol client.
func (h *TransferenciasHandler) Rechazar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.RechazarTransferenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	updated, err := h.store.Reject(callerContext(c), id, req)
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ConfirmarRecepcion handles PATCH /v1/transferencias/:id/confirmar-recepcion.
func (h *TransferenciasHandler) ConfirmarRecepcion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ConfirmarRecepcionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	updated, err := h.store.ConfirmReceipt(callerContext(c), id, req)
	if err != nil {
		writeTransferError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return 0, false
	}
	return id, true
}
