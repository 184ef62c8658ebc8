package signing_test

import (
	"net/http"
	"testing"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseDataToSign(t *testing.T) {
	t.Run("binds nonce request signature status and body", func(t *testing.T) {
		// given:
		resp, err := signing.NewResponse("abc-123", "c2lnbmF0dXJl", http.StatusCreated, false, []byte(`{"ok":true}`))
		require.NoError(t, err)

		// when:
		data, err := resp.DataToSign()

		// then:
		require.NoError(t, err)
		assert.Equal(t, "abc-123\nc2lnbmF0dXJl\n201\nfalse"+`{"ok":true}`, string(data))
	})

	t.Run("error responses are marked", func(t *testing.T) {
		// given:
		resp, err := signing.NewResponse("abc-123", "c2ln", http.StatusNotFound, true, nil)
		require.NoError(t, err)

		// when:
		data, err := resp.DataToSign()

		// then:
		require.NoError(t, err)
		assert.Equal(t, "abc-123\nc2ln\n404\ntrue", string(data))
	})

	t.Run("different request signatures with equal nonce produce different bytes", func(t *testing.T) {
		// given:
		first, err := signing.NewResponse("same-nonce", "c2lnLTE=", http.StatusOK, false, []byte("body"))
		require.NoError(t, err)
		second, err := signing.NewResponse("same-nonce", "c2lnLTI=", http.StatusOK, false, []byte("body"))
		require.NoError(t, err)

		// when:
		firstData, err := first.DataToSign()
		require.NoError(t, err)
		secondData, err := second.DataToSign()
		require.NoError(t, err)

		// then:
		assert.NotEqual(t, firstData, secondData)
	})
}

func TestNewResponseValidation(t *testing.T) {
	testCases := map[string]struct {
		nonce, requestSignature string
		status                  int
	}{
		"missing nonce":             {requestSignature: "c2ln", status: http.StatusOK},
		"missing request signature": {nonce: "n", status: http.StatusOK},
		"zero status":               {nonce: "n", requestSignature: "c2ln"},
		"status out of range":       {nonce: "n", requestSignature: "c2ln", status: 1000},
		"newline in nonce":          {nonce: "n\n", requestSignature: "c2ln", status: http.StatusOK},
	}
	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			// when:
			resp, err := signing.NewResponse(test.nonce, test.requestSignature, test.status, false, nil)

			// then:
			require.ErrorIs(t, err, signing.ErrValidation)
			assert.Nil(t, resp)
		})
	}
}

func TestBodyAllowed(t *testing.T) {
	tests := map[string]struct {
		method   string
		status   int
		expected bool
	}{
		"get ok":            {method: http.MethodGet, status: http.StatusOK, expected: true},
		"post created":      {method: http.MethodPost, status: http.StatusCreated, expected: true},
		"error status":      {method: http.MethodGet, status: http.StatusConflict, expected: true},
		"head ok":           {method: http.MethodHead, status: http.StatusOK, expected: false},
		"head error":        {method: http.MethodHead, status: http.StatusNotFound, expected: false},
		"no content":        {method: http.MethodDelete, status: http.StatusNoContent, expected: false},
		"not modified":      {method: http.MethodGet, status: http.StatusNotModified, expected: false},
		"informational":     {method: http.MethodGet, status: http.StatusContinue, expected: false},
		"unknown method ok": {method: "", status: http.StatusOK, expected: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, signing.BodyAllowed(test.method, test.status))
		})
	}
}
