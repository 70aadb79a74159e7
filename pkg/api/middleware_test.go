package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexora-ai/nexora/pkg/services"
	"github.com/nexora-ai/nexora/pkg/tasks"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondError(c, err)
	return rec
}

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", services.NewValidationError("query", "too short"), http.StatusBadRequest},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"task not found", tasks.ErrTaskNotFound, http.StatusNotFound},
		{"already exists", services.ErrAlreadyExists, http.StatusConflict},
		{"not retryable", tasks.ErrNotRetryable, http.StatusConflict},
		{"not cancelable", tasks.ErrNotCancelable, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := respond(t, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRespondErrorQuotaBody(t *testing.T) {
	rec := respond(t, &services.QuotaError{
		Code:    services.QuotaCodeMaxCreations,
		Limit:   10,
		Message: "course creation limit reached",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LIMIT_REACHED", body["error"])
	assert.Equal(t, services.QuotaCodeMaxCreations, body["code"])
	assert.Equal(t, float64(10), body["limit"])
	assert.Equal(t, "course creation limit reached", body["message"])
}

func TestRespondErrorInternalHidesDetails(t *testing.T) {
	rec := respond(t, errors.New("pq: connection refused"))
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
