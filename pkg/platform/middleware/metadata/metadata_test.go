package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.5:5555"
	assert.Equal(t, "192.168.1.5", ClientIPFromRequest(r))

	r.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", ClientIPFromRequest(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIPFromRequest(r))
}
