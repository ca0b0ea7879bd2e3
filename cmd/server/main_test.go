package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewServer_ListensOnConfiguredPort(t *testing.T) {
	srv := newServer(configuration.ServerConfig{Port: "9090"}, http.NotFoundHandler())

	assert.Equal(t, ":9090", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}

func TestNewRouter_WiresHealthAndAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := configuration.Load()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	r := newRouter(cfg, handlers.New(handlers.Deps{}), deny)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
