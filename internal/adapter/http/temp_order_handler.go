package http

import (
	"context"
	"io"
	"net/http"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/app/temporder"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/go-chi/chi/v5"
)

// TempOrderHandler serves /pedidos-temp: customer intake, staff review and
// the approve/reject decisions.
type TempOrderHandler struct {
	service interfaces.TempOrderService
	logger  logger.Logger
}

func NewTempOrderHandler(service interfaces.TempOrderService, logger logger.Logger) *TempOrderHandler {
	return &TempOrderHandler{service: service, logger: logger}
}

type trustRequest struct {
	Trusted *bool `json:"confiable"`
}

type approveResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

type verifyPhoneResponse struct {
	Exists  bool  `json:"existe"`
	Trusted *bool `json:"confiable,omitempty"`
}

func (h *TempOrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, h.logger, bodyError(err))
		return
	}

	cmd, err := temporder.DecodeSubmission(body)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if _, err := h.service.Submit(r.Context(), cmd); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Pedido temporal guardado correctamente"})
}

func (h *TempOrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListAll)
}

func (h *TempOrderHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListPending)
}

func (h *TempOrderHandler) ListForDelivery(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListForDelivery)
}

func (h *TempOrderHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]domain.TempOrder, error)) {
	orders, err := fetch(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Delete removes the record outright. Reject keeps it as rechazado.
func (h *TempOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Pedido eliminado correctamente"})
}

func (h *TempOrderHandler) SetTrusted(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req trustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.Trusted == nil {
		respondError(w, r, h.logger, domain.Validation("confiable es requerido"))
		return
	}

	if err := h.service.SetTrusted(r.Context(), id, *req.Trusted); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Confiable actualizado"})
}

func (h *TempOrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.service.Reject(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Pedido temporal rechazado y cliente notificado"})
}

func (h *TempOrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	orderID, err := h.service.Approve(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, approveResponse{
		Message: "Pedido aprobado y guardado en tablas definitivas",
		OrderID: orderID,
	})
}

// VerifyPhone omits confiable when the phone has never ordered.
func (h *TempOrderHandler) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.VerifyPhone(r.Context(), chi.URLParam(r, "telefono"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp := verifyPhoneResponse{Exists: status.Exists}
	if status.Exists {
		resp.Trusted = &status.Trusted
	}
	respondJSON(w, http.StatusOK, resp)
}
