package http

import (
	"net/http"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/shopspring/decimal"
)

// CatalogHandler serves products, tables and the configuracion row.
type CatalogHandler struct {
	service interfaces.CatalogService
	logger  logger.Logger
}

func NewCatalogHandler(service interfaces.CatalogService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, logger: logger}
}

type productRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Type  string          `json:"type"`
	Image string          `json:"image"`
}

func (req productRequest) product(id int64) domain.Product {
	return domain.Product{ID: id, Name: req.Name, Price: req.Price, Type: req.Type, Image: req.Image}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) ProductTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ProductTypes(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, types)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.product(0))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if _, err := h.service.UpdateProduct(r.Context(), req.product(id)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Producto actualizado"})
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Producto eliminado correctamente"})
}

type tableRequest struct {
	Name string `json:"name"`
}

type tableResponse struct {
	domain.Table
	Message string `json:"message"`
}

func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.ListTables(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tables)
}

func (h *CatalogHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	table, err := h.service.CreateTable(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tableResponse{Table: *table, Message: "Mesa creada correctamente"})
}

func (h *CatalogHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req tableRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if _, err := h.service.UpdateTable(r.Context(), id, req.Name); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Mesa actualizada correctamente"})
}

func (h *CatalogHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteTable(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Mesa eliminada correctamente"})
}

type settingsRequest struct {
	DeliveryEnabled *bool `json:"domicilios_activos"`
}

type settingsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *CatalogHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *CatalogHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.DeliveryEnabled == nil {
		respondError(w, r, h.logger, domain.Validation("domicilios_activos es requerido"))
		return
	}

	if err := h.service.SetDeliveryEnabled(r.Context(), *req.DeliveryEnabled); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, settingsResponse{Success: true, Message: "Configuración actualizada correctamente"})
}
