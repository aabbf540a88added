package alert

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mindhaven/platform/internal/crisis"
)

// The repository backs all three crisis persistence contracts
var (
	_ crisis.AlertStore         = (*Repository)(nil)
	_ crisis.AlertHistoryReader = (*Repository)(nil)
	_ crisis.DetectionLogger    = (*Repository)(nil)
)

// TestResolveInvalidID tests that a malformed alert ID is rejected before
// any database access
func TestResolveInvalidID(t *testing.T) {
	h := NewHandler(nil)
	router := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/not-a-uuid/resolve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
