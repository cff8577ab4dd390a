package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novatech/repair-desk-backend/internal/adapters/primary/validation"
	"github.com/novatech/repair-desk-backend/internal/core/domain"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

const maxOrdersPerPage = 100

var statusValues = []string{"pending", "in-progress", "completed", "cancelled"}

// OrderHandler handles HTTP requests for repair orders
type OrderHandler struct {
	orderService ports.OrderService
	errorHandler *ErrorHandler
	demoMode     bool
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler. demoMode is reported on list
// responses so the dashboard can show its degraded-store banner.
func NewOrderHandler(
	orderService ports.OrderService,
	errorHandler *ErrorHandler,
	demoMode bool,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		errorHandler: errorHandler,
		demoMode:     demoMode,
		logger:       logger.With("handler", "order"),
	}
}

// RegisterRoutes sets up the routing for all order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListOrders)
	r.Post("/", h.HandleCreateOrder)

	r.Route("/{orderNo}", func(r chi.Router) {
		r.Get("/", h.HandleGetOrder)
		r.Put("/", h.HandleUpdateOrder)
		r.Delete("/", h.HandleDeleteOrder)
	})
}

// --- Request/Response DTOs ---

// CreateOrderRequest defines the expected JSON body for creating an order
type CreateOrderRequest struct {
	Subject    string `json:"subject"`
	DeviceName string `json:"deviceName"`
	Department string `json:"department"`
	ReportedBy string `json:"reportedBy"`
	Items      string `json:"items"`
	Notes      string `json:"notes"`
}

// Validate validates the create order request
func (r *CreateOrderRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("subject", r.Subject).
		MaxLength("subject", r.Subject, domain.MaxSubjectLength)

	v.Required("deviceName", r.DeviceName).
		MaxLength("deviceName", r.DeviceName, domain.MaxNameLength)

	v.Required("department", r.Department).
		MaxLength("department", r.Department, domain.MaxNameLength)

	v.Required("reportedBy", r.ReportedBy).
		MaxLength("reportedBy", r.ReportedBy, domain.MaxNameLength)

	v.MaxLength("items", r.Items, domain.MaxFreeTextLength)
	v.MaxLength("notes", r.Notes, domain.MaxFreeTextLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateOrderRequest defines the expected JSON body for a partial update.
// Absent fields are left untouched.
type UpdateOrderRequest struct {
	Subject            *string `json:"subject"`
	DeviceName         *string `json:"deviceName"`
	Department         *string `json:"department"`
	ReportedBy         *string `json:"reportedBy"`
	Status             *string `json:"status"`
	Items              *string `json:"items"`
	RootCause          *string `json:"rootCause"`
	Action             *string `json:"action"`
	AssignedTechnician *string `json:"assignedTechnician"`
	Notes              *string `json:"notes"`
}

// Validate validates the update order request
func (r *UpdateOrderRequest) Validate() error {
	v := validation.NewValidator()

	if r.Subject != nil {
		v.Required("subject", *r.Subject).
			MaxLength("subject", *r.Subject, domain.MaxSubjectLength)
	}
	if r.Status != nil {
		v.OneOf("status", *r.Status, statusValues)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

func (r *UpdateOrderRequest) toDomain() domain.OrderUpdate {
	update := domain.OrderUpdate{
		Subject:            r.Subject,
		DeviceName:         r.DeviceName,
		Department:         r.Department,
		ReportedBy:         r.ReportedBy,
		Items:              r.Items,
		RootCause:          r.RootCause,
		Action:             r.Action,
		AssignedTechnician: r.AssignedTechnician,
		Notes:              r.Notes,
	}
	if r.Status != nil {
		status := domain.OrderStatus(*r.Status)
		update.Status = &status
	}
	return update
}

// toOrderDTOs maps domain orders to their wire shape. The REST response and
// relay event payload share one shape on purpose, so the reconciler can merge
// fetched and pushed state directly.
func toOrderDTOs(orders []*domain.RepairOrder) []*domain.OrderSnapshot {
	response := make([]*domain.OrderSnapshot, 0, len(orders))
	for _, order := range orders {
		response = append(response, domain.NewOrderSnapshot(order))
	}
	return response
}

// --- Handlers ---

// HandleListOrders handles GET /orders
func (h *OrderHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	pagination := validation.ParsePagination(r, maxOrdersPerPage)

	status := validation.ParseStringQueryParam(r, "status")
	department := validation.ParseStringQueryParam(r, "department")
	search := validation.ParseStringQueryParam(r, "search")

	v := validation.NewValidator()
	if status != nil {
		v.OneOf("status", *status, statusValues)
	}
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	params := ports.ListOrdersParams{
		Status:     status,
		Department: department,
		Search:     search,
		Limit:      pagination.Limit + 1,
		Offset:     pagination.Offset,
	}

	orders, err := h.orderService.ListOrders(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteOrderList(w, toOrderDTOs(orders), pagination.Limit, pagination.Offset, h.demoMode)
}

// HandleCreateOrder handles POST /orders
func (h *OrderHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateOrderRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateOrderParams{
		Subject:    req.Subject,
		DeviceName: req.DeviceName,
		Department: req.Department,
		ReportedBy: req.ReportedBy,
		Items:      req.Items,
		Notes:      req.Notes,
	}

	order, err := h.orderService.CreateOrder(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("repair order created",
		"order_no", order.OrderNo,
		"department", order.Department,
	)

	WriteCreated(w, domain.NewOrderSnapshot(order))
}

// HandleGetOrder handles GET /orders/{orderNo}
func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")

	order, err := h.orderService.GetOrder(r.Context(), orderNo)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewOrderSnapshot(order))
}

// HandleUpdateOrder handles PUT /orders/{orderNo}
func (h *OrderHandler) HandleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")

	req, err := validation.DecodeAndValidate[UpdateOrderRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateOrderParams{
		OrderNo: orderNo,
		Fields:  req.toDomain(),
	}

	order, err := h.orderService.UpdateOrder(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("repair order updated",
		"order_no", orderNo,
		"status", order.Status,
	)

	WriteJSON(w, http.StatusOK, domain.NewOrderSnapshot(order))
}

// HandleDeleteOrder handles DELETE /orders/{orderNo}
func (h *OrderHandler) HandleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")

	if err := h.orderService.DeleteOrder(r.Context(), orderNo); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("repair order deleted", "order_no", orderNo)

	WriteNoContent(w)
}
