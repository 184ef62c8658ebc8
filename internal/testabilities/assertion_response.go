package testabilities

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/client"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/constants"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
)

type ResponseAssertion interface {
	HasStatus(statusCode int) ResponseAssertion
	HasHeader(headerName string) ResponseAssertion
	HasNoHeader(headerName string) ResponseAssertion
	HasBody(expectedBody string) ResponseAssertion
	IsSignedFor(signature *client.Signature, verifier keys.Verifier) ResponseAssertion
	IsNotSigned() ResponseAssertion
}

type httpResponseAssertion struct {
	testing.TB

	response *http.Response
}

func NewResponseAssertion(t testing.TB, response *http.Response) ResponseAssertion {
	return &httpResponseAssertion{
		TB:       t,
		response: response,
	}
}

func (a *httpResponseAssertion) HasStatus(status int) ResponseAssertion {
	a.Helper()
	assert.Equalf(a, status, a.response.StatusCode, "fetch should return status %d", status)
	return a
}

func (a *httpResponseAssertion) HasHeader(headerName string) ResponseAssertion {
	a.Helper()
	assert.NotEmptyf(a, a.response.Header.Get(headerName), "response should have header %s", headerName)
	return a
}

func (a *httpResponseAssertion) HasNoHeader(headerName string) ResponseAssertion {
	a.Helper()
	assert.Emptyf(a, a.response.Header.Get(headerName), "response should not have header %s", headerName)
	return a
}

func (a *httpResponseAssertion) HasBody(body string) ResponseAssertion {
	a.Helper()
	responseBody, err := io.ReadAll(a.response.Body)
	if assert.NoError(a, err, "body should be readable") {
		assert.Equal(a, body, string(responseBody))
	}
	return a
}

// IsSignedFor verifies the response signature. The body stays readable afterwards.
func (a *httpResponseAssertion) IsSignedFor(signature *client.Signature, verifier keys.Verifier) ResponseAssertion {
	a.Helper()
	assert.NotEmpty(a, a.response.Header.Get(constants.HeaderTimestamp), "signed response should have a timestamp")
	assert.NoError(a, client.VerifyResponse(a.response, signature, verifier), "response signature should verify")
	return a
}

func (a *httpResponseAssertion) IsNotSigned() ResponseAssertion {
	a.Helper()
	return a.HasNoHeader(constants.HeaderSignature).HasNoHeader(constants.HeaderTimestamp)
}
