package bridge

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestTimeout_ExemptsFullSyncPasses(t *testing.T) {
	tests := []struct {
		method       string
		path         string
		wantDeadline bool
	}{
		{http.MethodPost, "/sync/users", false},
		{http.MethodPost, "/sync/products", false},
		{http.MethodPost, "/sync/users/42", true},
		{http.MethodGet, "/sync/test", true},
		{http.MethodGet, "/dashboard", true},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var hasDeadline bool
			h := requestTimeout(time.Minute, "/sync/users", "/sync/products")(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, hasDeadline = r.Context().Deadline()
					w.WriteHeader(http.StatusOK)
				}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantDeadline, hasDeadline)
		})
	}
}
