package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
	"github.com/novatech/repair-desk-backend/internal/core/mocks"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

func newTestRouter(t *testing.T, svc ports.OrderService, demoMode bool) chi.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewOrderHandler(svc, NewErrorHandler(logger), demoMode, logger)

	router := chi.NewRouter()
	router.Route("/api/v1/orders", handler.RegisterRoutes)
	return router
}

func sampleOrder(orderNo string) *domain.RepairOrder {
	order, _ := domain.NewRepairOrder(domain.OrderParams{
		Subject:    "Screen cracked",
		DeviceName: "Surface Pro",
		Department: "HR",
		ReportedBy: "Omar Haddad",
	})
	order.OrderNo = orderNo
	return order
}

func doJSON(t *testing.T, router chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(context.Background())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestOrderHandler_Create(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	created := sampleOrder("RO-2026-0001")
	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(params ports.CreateOrderParams) bool {
		return params.Subject == "Screen cracked" && params.Department == "HR"
	})).Return(created, nil)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/orders", map[string]string{
		"subject":    "Screen cracked",
		"deviceName": "Surface Pro",
		"department": "HR",
		"reportedBy": "Omar Haddad",
	})

	require.Equal(t, http.StatusCreated, recorder.Code)

	var got domain.OrderSnapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, "RO-2026-0001", got.OrderNo)
	assert.Equal(t, "pending", got.Status)
	svc.AssertExpectations(t)
}

func TestOrderHandler_Create_ValidationFailure(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/orders", map[string]string{
		"subject": "Missing everything else",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Contains(t, resp.Fields, "deviceName")
	assert.Contains(t, resp.Fields, "department")
	assert.Contains(t, resp.Fields, "reportedBy")

	svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderHandler_Get_NotFound(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	svc.On("GetOrder", mock.Anything, "RO-2026-9999").Return(nil, apperrors.ErrOrderNotFound)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/orders/RO-2026-9999", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "ORDER_NOT_FOUND", resp.Code)
}

func TestOrderHandler_List_ReportsDemoMode(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, true)

	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(params ports.ListOrdersParams) bool {
		// Handlers fetch one extra row to compute hasMore.
		return params.Limit == 26
	})).Return([]*domain.RepairOrder{sampleOrder("RO-2026-0001")}, nil)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp OrderListResponse[*domain.OrderSnapshot]
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.DemoMode)
	assert.False(t, resp.Pagination.HasMore)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "RO-2026-0001", resp.Data[0].OrderNo)
}

func TestOrderHandler_List_HasMoreTrimsExtraRow(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	// Service returns limit+1 rows: page is full and one extra signals more.
	extra := []*domain.RepairOrder{
		sampleOrder("RO-2026-0001"),
		sampleOrder("RO-2026-0002"),
		sampleOrder("RO-2026-0003"),
	}
	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(params ports.ListOrdersParams) bool {
		return params.Limit == 3
	})).Return(extra, nil)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/orders?limit=2", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp OrderListResponse[*domain.OrderSnapshot]
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Pagination.HasMore)
	assert.Len(t, resp.Data, 2)
}

func TestOrderHandler_List_RejectsBadStatusFilter(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/orders?status=solved", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	svc.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestOrderHandler_Update(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	updated := sampleOrder("RO-2026-0002")
	updated.Status = domain.StatusInProgress
	svc.On("UpdateOrder", mock.Anything, mock.MatchedBy(func(params ports.UpdateOrderParams) bool {
		return params.OrderNo == "RO-2026-0002" &&
			params.Fields.Status != nil && *params.Fields.Status == domain.StatusInProgress
	})).Return(updated, nil)

	recorder := doJSON(t, router, http.MethodPut, "/api/v1/orders/RO-2026-0002", map[string]string{
		"status": "in-progress",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var got domain.OrderSnapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, "in-progress", got.Status)
}

func TestOrderHandler_Update_RejectsUnknownStatus(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	recorder := doJSON(t, router, http.MethodPut, "/api/v1/orders/RO-2026-0002", map[string]string{
		"status": "finished",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	svc.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
}

func TestOrderHandler_Delete(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	svc.On("DeleteOrder", mock.Anything, "RO-2026-0003").Return(nil)

	recorder := doJSON(t, router, http.MethodDelete, "/api/v1/orders/RO-2026-0003", nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, recorder.Body.String())
}

func TestOrderHandler_StoreUnavailableMapsTo503(t *testing.T) {
	svc := mocks.NewMockOrderService()
	router := newTestRouter(t, svc, false)

	svc.On("ListOrders", mock.Anything, mock.Anything).Return(nil, apperrors.ErrStoreUnavailable)

	recorder := doJSON(t, router, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "STORE_UNAVAILABLE", resp.Code)
}
