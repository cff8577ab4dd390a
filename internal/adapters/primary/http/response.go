package http

import (
	"encoding/json"
	"net/http"
)

// OrderListResponse wraps the order list with pagination metadata and the
// degraded-mode flag the dashboard uses to show its demo banner.
type OrderListResponse[T any] struct {
	Data       []T                `json:"data"`
	Pagination PaginationMetadata `json:"pagination"`
	DemoMode   bool               `json:"demoMode"`
}

// PaginationMetadata contains pagination information
type PaginationMetadata struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Header already sent; nothing sensible left to do.
		_ = err
	}
}

// WriteCreated writes a created response
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a no content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteOrderList writes a paginated order list. hasMore is determined by the
// limit+1 fetch technique: callers request one extra row and we trim it here.
func WriteOrderList[T any](w http.ResponseWriter, data []T, limit, offset int, demoMode bool) {
	hasMore := len(data) > limit

	items := data
	if hasMore {
		items = data[:limit]
	}

	WriteJSON(w, http.StatusOK, OrderListResponse[T]{
		Data: items,
		Pagination: PaginationMetadata{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
		},
		DemoMode: demoMode,
	})
}
