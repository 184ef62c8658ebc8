package ginadapter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/exchange"
)

// ExchangeMiddleware creates a Gin handler that authenticates signed requests and signs the responses.
// Handlers use exchange.GetIdentityFromContext(c.Request.Context()) to read the identity
// and exchange.SendError(c.Writer, ...) to send an error response.
func ExchangeMiddleware(m *exchange.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		original := c.Writer
		called := false

		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			if w != http.ResponseWriter(original) {
				c.Writer = newResponseWriter(original, w)
				defer func() { c.Writer = original }()
			}
			c.Next()
		}))

		handler.ServeHTTP(original, c.Request)

		if !called {
			c.Abort()
		}
	}
}
