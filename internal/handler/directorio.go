package handler

import (
	"net/http"
	"strconv"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/apierror"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/middleware"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// DirectorioHandler proxies the read-only catalog lookups the transfer
// screens need: sedes, almacenes, and product details.
type DirectorioHandler struct {
	directorio *service.DirectorioClient
}

func NewDirectorioHandler(directorio *service.DirectorioClient) *DirectorioHandler {
	return &DirectorioHandler{directorio: directorio}
}

// Sedes handles GET /v1/directorio/sedes.
func (h *DirectorioHandler) Sedes(c *gin.Context) {
	session := middleware.SessionFrom(c)
	sedes, err := h.directorio.ListSedes(callerContext(c), session.Role)
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("No se pudo cargar las sedes."))
		return
	}
	c.JSON(http.StatusOK, sedes)
}

// Almacenes handles GET /v1/directorio/almacenes.
func (h *DirectorioHandler) Almacenes(c *gin.Context) {
	session := middleware.SessionFrom(c)
	almacenes, err := h.directorio.ListAlmacenes(callerContext(c), session.Role)
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("No se pudo cargar almacenes."))
		return
	}
	c.JSON(http.StatusOK, almacenes)
}

// Producto handles GET /v1/directorio/productos/:id.
func (h *DirectorioHandler) Producto(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	session := middleware.SessionFrom(c)
	producto, lookupErr := h.directorio.GetProducto(callerContext(c), id, session.Role)
	if lookupErr != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, producto)
}
