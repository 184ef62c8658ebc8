package ginadapter_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ginadapter "github.com/bsv-blockchain/go-signed-exchange/adapter/gin"
	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities"
	"github.com/bsv-blockchain/go-signed-exchange/internal/testabilities/testusers"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/middleware/exchange"
)

func TestExchangeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("signed request gets signed response", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		router := gin.New()
		router.Use(ginadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		router.POST("/orders", func(c *gin.Context) {
			then.Request(c.Request).
				HasBody(`{"id":1}`).
				HasIdentityOfUser(testusers.Carol)

			c.String(http.StatusCreated, "created")
		})

		// and:
		server := httptest.NewServer(router)
		defer server.Close()

		// and:
		request, signature := given.Client().SignedRequest(testusers.Carol, http.MethodPost, server.URL+"/orders", `{"id":1}`)

		// when:
		response, err := http.DefaultClient.Do(request)

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusCreated).
			IsSignedFor(signature, given.Client().ResponseVerifierFor(testusers.Carol)).
			HasBody("created")
	})

	t.Run("json response through signing client", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		router := gin.New()
		router.Use(ginadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		router.GET("/orders/1", func(c *gin.Context) {
			identity, ok := exchange.GetIdentityFromContext(c.Request.Context())
			require.True(t, ok, "request should be authenticated")

			c.JSON(http.StatusOK, gin.H{"id": 1, "owner": identity.Name})
		})

		// and:
		server := httptest.NewServer(router)
		defer server.Close()

		// when:
		response, err := given.Client().ForUser(testusers.Bob).Get(server.URL + "/orders/1")

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusOK).
			HasBody(`{"id":1,"owner":"bob"}`)
	})

	t.Run("send error from handler", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		router := gin.New()
		router.Use(ginadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		router.GET("/", func(c *gin.Context) {
			exchange.SendError(c.Writer, http.StatusForbidden, "access denied")
		})

		// and:
		server := httptest.NewServer(router)
		defer server.Close()

		// and:
		request, signature := given.Client().SignedRequest(testusers.Alice, http.MethodGet, server.URL+"/", "")

		// when:
		response, err := http.DefaultClient.Do(request)

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusForbidden).
			HasHeader(constants.HeaderExcludeBody).
			IsSignedFor(signature, given.Client().ResponseVerifierFor(testusers.Alice)).
			HasBody("access denied")
	})

	t.Run("unsigned request passes through", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		router := gin.New()
		router.Use(ginadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		router.POST("/", func(c *gin.Context) {
			then.Request(c.Request).
				HasBody("Ping").
				IsUnauthenticated()

			c.String(http.StatusUnauthorized, "sign in first")
		})

		// and:
		server := httptest.NewServer(router)
		defer server.Close()

		// when:
		response, err := http.Post(server.URL+"/", "text/plain", strings.NewReader("Ping"))

		// then:
		require.NoError(t, err)
		defer response.Body.Close()

		then.Response(response).
			HasStatus(http.StatusUnauthorized).
			IsNotSigned().
			HasBody("sign in first")
	})

	t.Run("unknown identity aborts the chain", func(t *testing.T) {
		// given:
		given, then := testabilities.New(t)

		// and:
		handlerCalled := false
		router := gin.New()
		router.Use(ginadapter.ExchangeMiddleware(given.Middleware().NewExchange()))
		router.GET("/", func(c *gin.Context) {
			handlerCalled = true
		})

		// and:
		server := httptest.NewServer(router)
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
