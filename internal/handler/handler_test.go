package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitfantasy/nimo-bom/internal/bom"
	"github.com/bitfantasy/nimo-bom/internal/repository"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestRespondBOMErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"item not found", bom.ErrItemNotFound, 404, 40400},
		{"wrapped item not found", fmt.Errorf("root item x: %w", bom.ErrItemNotFound), 404, 40400},
		{"repo not found", repository.ErrNotFound, 404, 40400},
		{"cycle", &bom.CycleError{Path: []string{"A", "B", "A"}}, 409, 40900},
		{"storage unavailable", bom.ErrStorageUnavailable, 503, 50300},
		{"invalid max depth", bom.ErrInvalidMaxDepth, 400, 40000},
		{"unknown", errors.New("boom"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t, "/api/v1/items/x/bom/explode")
			respondBOMError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if resp := decodeResponse(t, w); resp.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestRespondBOMErrorCyclePathInMessage(t *testing.T) {
	c, w := newTestContext(t, "/api/v1/bom/edges")
	respondBOMError(c, &bom.CycleError{Path: []string{"A", "B", "A"}})

	resp := decodeResponse(t, w)
	if want := "bom cycle detected: A -> B -> A"; resp.Message != want {
		t.Errorf("message = %q, want %q", resp.Message, want)
	}
}

func TestGetScopeFilter(t *testing.T) {
	c, _ := newTestContext(t, "/x?customer_id=hyundai&supplier_id=posco&exact_only=true")
	f := getScopeFilter(c)

	if f.CustomerID != "hyundai" || f.SupplierID != "posco" || !f.ExactOnly {
		t.Errorf("unexpected filter %+v", f)
	}
}

func TestGetScopeFilterDefaults(t *testing.T) {
	c, _ := newTestContext(t, "/x")
	f := getScopeFilter(c)

	if f.CustomerID != "" || f.SupplierID != "" || f.ExactOnly {
		t.Errorf("unexpected filter %+v", f)
	}
}

func TestGetMaxDepth(t *testing.T) {
	c, _ := newTestContext(t, "/x?max_depth=7")
	if got := getMaxDepth(c); got != 7 {
		t.Errorf("max_depth = %d, want 7", got)
	}

	c, _ = newTestContext(t, "/x")
	if got := getMaxDepth(c); got != 0 {
		t.Errorf("default max_depth = %d, want 0", got)
	}

	c, _ = newTestContext(t, "/x?max_depth=abc")
	if got := getMaxDepth(c); got != 0 {
		t.Errorf("bad max_depth = %d, want 0", got)
	}
}

func TestGetPaginationBounds(t *testing.T) {
	c, _ := newTestContext(t, "/x?page=3&page_size=50")
	page, pageSize := GetPagination(c)
	if page != 3 || pageSize != 50 {
		t.Errorf("got page=%d size=%d, want 3/50", page, pageSize)
	}

	c, _ = newTestContext(t, "/x?page=-1&page_size=9999")
	page, pageSize = GetPagination(c)
	if page != 1 || pageSize != 20 {
		t.Errorf("got page=%d size=%d, want defaults 1/20", page, pageSize)
	}
}
