package echoadapter_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoadapter "github.com/bsv-blockchain/go-signed-exchange/adapter/echo"
	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities"
	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities/testusers"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/exchange"
)

func TestExchangeMiddleware(t *testing.T) {
	t.Run("signed request gets signed response", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		e := echo.New()
		e.Use(echoadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		e.POST("/orders", func(c echo.Context) error {
			then.Request(c.Request()).
				HasBody(`{"id":1}`).
				HasIdentityOfUser(testusers.Alice)

			return c.String(http.StatusCreated, "created")
		})

		// and:
		server := httptest.NewServer(e)
		defer server.Close()

		// and:
		request, signature := given.Client().SignedRequest(testusers.Alice, http.MethodPost, server.URL+"/orders", `{"id":1}`)

		// when:
		response, err := http.DefaultClient.Do(request)

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusCreated).
			IsSignedFor(signature, given.Client().ResponseVerifierFor(testusers.Alice)).
			HasBody("created")
	})

	t.Run("handler error is signed", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		e := echo.New()
		e.Use(echoadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		e.GET("/orders/:id", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "no such order")
		})

		// and:
		server := httptest.NewServer(e)
		defer server.Close()

		// and:
		request, signature := given.Client().SignedRequest(testusers.Bob, http.MethodGet, server.URL+"/orders/7", "")

		// when:
		response, err := http.DefaultClient.Do(request)

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusNotFound).
			HasNoHeader(constants.HeaderExcludeBody).
			IsSignedFor(signature, given.Client().ResponseVerifierFor(testusers.Bob)).
			HasBody(`{"message":"no such order"}` + "\n")
	})

	t.Run("send error from handler", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		e := echo.New()
		e.Use(echoadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		e.GET("/", func(c echo.Context) error {
			exchange.SendError(c.Response(), http.StatusForbidden, "access denied")
			return nil
		})

		// and:
		server := httptest.NewServer(e)
		defer server.Close()

		// when:
		response, err := given.Client().ForUser(testusers.Carol).Get(server.URL + "/")

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusForbidden).
			HasHeader(constants.HeaderExcludeBody).
			HasBody("access denied")
	})

	t.Run("unsigned request passes through", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		e := echo.New()
		e.Use(echoadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		e.POST("/", func(c echo.Context) error {
			then.Request(c.Request()).
				HasBody("Ping").
				IsUnauthenticated()

			return c.String(http.StatusOK, "Pong!")
		})

		// and:
		server := httptest.NewServer(e)
		defer server.Close()

		// when:
		response, err := http.Post(server.URL+"/", "text/plain", strings.NewReader("Ping"))

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusOK).
			IsNotSigned().
			HasBody("Pong!")
	})

	t.Run("unknown identity does not reach the handler", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		handlerCalled := false
		e := echo.New()
		e.Use(echoadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		e.GET("/", func(c echo.Context) error {
			handlerCalled = true
			return nil
		})

		// and:
		server := httptest.NewServer(e)
		defer server.Close()

		// and:
		request, _ := given.Client().SignedRequest(testusers.Mallory, http.MethodGet, server.URL+"/", "")

		// when:
		response, err := http.DefaultClient.Do(request)

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).HasStatus(http.StatusInternalServerError)
		assert.False(t, handlerCalled, "handler should not be called")
	})
}
