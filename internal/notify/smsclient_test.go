package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsToGateway(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL, false)
	err := c.Send(context.Background(), "+1555", "hello")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"to": "+1555", "message": "hello"}, got)
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewSMSClient(srv.URL, false)
	err := c.Send(context.Background(), "+1555", "hello")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestSendSkipOnlyLogs(t *testing.T) {
	c := NewSMSClient("http://unreachable.invalid", true)
	assert.NoError(t, c.Send(context.Background(), "+1555", "hello"))
	assert.NoError(t, c.Health(context.Background()))
}

func TestSendRequiresPhone(t *testing.T) {
	c := NewSMSClient("http://unreachable.invalid", false)
	assert.Error(t, c.Send(context.Background(), "", "hello"))
}

func TestArrivalMessage(t *testing.T) {
	msg := ArrivalMessage("Jane Doe", "11 WISDOM")
	assert.Equal(t, "Your son/daughter, Jane Doe from 11 WISDOM, has entered the school safely.", msg)
}
