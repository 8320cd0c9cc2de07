package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWebhookOversizedBodyIsLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	// the oversized path returns before reconciliation
	h := NewMpesaWebhookHandler(nil, zap.New(core))

	r := gin.New()
	r.POST("/cb", h.Handle)

	payload := `{"CheckoutRequestID":"abc","ResultCode":0,"pad":"` + strings.Repeat("x", maxCallbackBody) + `"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cb", bytes.NewBufferString(payload)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ResultCode":0,"ResultDesc":"Accepted"}`, w.Body.String())

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "body too large")
	assert.Equal(t, int64(maxCallbackBody), entries[0].ContextMap()["limit"])
}

func TestWebhookMalformedBodyIsAcknowledged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewMpesaWebhookHandler(nil, zap.New(core))

	r := gin.New()
	r.POST("/cb", h.Handle)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cb", bytes.NewBufferString(`garbage`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, logs.FilterMessageSnippet("unparseable").Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}
