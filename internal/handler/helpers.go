package handler

import (
	"errors"
	"net/http"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/apierror"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/dto"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeTransferError maps a store/client failure onto the HTTP response.
// TransferAPIError statuses pass through (0 → 502: the logistics service was
// unreachable); draft validation failures are 422; anything else is a 500
// with a generic envelope.
func writeTransferError(c *gin.Context, err error) {
	var apiErr *infra.TransferAPIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		resp := dto.TransferenciaErrorResponse{
			Detail:        apiErr.Message,
			BackendDetail: apiErr.BackendMessage,
			Conflict:      conflictDTO(apiErr.Conflict),
		}
		if apiErr.Conflict != nil {
			id := apiErr.Conflict.ProductID
			resp.ConflictProductID = &id
		}
		c.JSON(status, resp)
		return
	}

	if errors.Is(err, service.ErrDraftRouteIncomplete) ||
		errors.Is(err, service.ErrDraftSameRoute) ||
		errors.Is(err, service.ErrDraftNoItems) ||
		errors.Is(err, service.ErrDraftNoUser) {
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
		return
	}

	c.JSON(http.StatusInternalServerError, apierror.New("No se pudo completar la operación de transferencias."))
}

func conflictDTO(conflict *infra.StockConflict) *dto.ConflictoStockDTO {
	if conflict == nil {
		return nil
	}
	return &dto.ConflictoStockDTO{
		Requested:   conflict.Requested,
		Available:   conflict.Available,
		ProductID:   conflict.ProductID,
		WarehouseID: conflict.WarehouseID,
	}
}
