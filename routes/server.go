package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventhub/middlewares"
)

// NewEngine builds the gin engine shared by /api and the UI: request log,
// recovery and CORS. X-Forwarded-For is honoured only when the peer is one of
// trustedProxies; the UI calls /api from loopback and forwards the browser IP
// that way.
func NewEngine(logger *zap.Logger, trustedProxies, corsOrigins []string) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := gin.New()
	if err := server.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	server.Use(middlewares.RequestLogger(logger))
	server.Use(middlewares.Recovery(logger))
	server.Use(middlewares.CORS(corsOrigins))
	return server, nil
}
