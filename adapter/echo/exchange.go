package echoadapter

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/exchange"
)

// ExchangeMiddleware creates an Echo middleware that authenticates signed requests and signs the responses.
//
// Errors returned by handlers are rendered by the Echo error handler before the response is signed,
// so error documents are covered by the signature like any other response.
func ExchangeMiddleware(m *exchange.Middleware) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()
			original := res.Writer

			handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				res.Writer = w
				defer func() { res.Writer = original }()

				c.SetRequest(r)
				if err := next(c); err != nil {
					c.Error(err)
				}
			}))

			handler.ServeHTTP(original, c.Request())
			return nil
		}
	}
}
