package tests

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONResponse checks the status code and decodes the body into the type of expected before comparing.
func AssertJSONResponse[T any](t *testing.T, recorder *httptest.ResponseRecorder, expectedStatus int, expected T) {
	t.Helper()

	assert.Equal(t, expectedStatus, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var actual T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &actual), "body: %s", recorder.Body.String())
	assert.Equal(t, expected, actual)
}
