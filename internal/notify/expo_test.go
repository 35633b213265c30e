package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch/internal/notify"
	"github.com/plantwatch/plantwatch/internal/provider/resilience"
)

func testResilienceClient() *resilience.Client {
	return resilience.NewClient(resilience.ClientConfig{
		Name:            "expo-test",
		Timeout:         2 * time.Second,
		MaxRetries:      1,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
	})
}

func TestExpoClient_Send(t *testing.T) {
	var received []notify.PushMessage
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"abc"}]}`))
	}))
	defer server.Close()

	client := notify.NewExpoClient(notify.ExpoConfig{
		URL:         server.URL,
		AccessToken: "secret",
		Client:      testResilienceClient(),
	})

	ok, err := client.Send(context.Background(), notify.PushMessage{
		To:    "ExponentPushToken[a]",
		Title: "Alerta de sensor",
		Body:  "hola",
		Data:  map[string]any{"id": 7},
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Bearer secret", auth)
	require.Len(t, received, 1)
	assert.Equal(t, "ExponentPushToken[a]", received[0].To)
	assert.Equal(t, float64(7), received[0].Data["id"])
}

func TestExpoClient_TicketShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"data array ok", `{"data":[{"status":"ok"}]}`, true},
		{"data object ok", `{"data":{"status":"ok"}}`, true},
		{"bare array ok", `[{"status":"error"},{"status":"ok"}]`, true},
		{"all errors", `{"data":[{"status":"error","message":"DeviceNotRegistered"}]}`, false},
		{"no data", `{"errors":[{"code":"X"}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := notify.NewExpoClient(notify.ExpoConfig{URL: server.URL, Client: testResilienceClient()})

			ok, err := client.Send(context.Background(), notify.PushMessage{To: "t"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestExpoClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"code":"VALIDATION_ERROR"}]}`))
	}))
	defer server.Close()

	client := notify.NewExpoClient(notify.ExpoConfig{URL: server.URL, Client: testResilienceClient()})

	ok, err := client.Send(context.Background(), notify.PushMessage{To: "t"})
	assert.False(t, ok)

	var serverErr *resilience.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
}

func TestExpoClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := notify.NewExpoClient(notify.ExpoConfig{URL: server.URL, Client: testResilienceClient()})

	_, err := client.Send(context.Background(), notify.PushMessage{To: "t"})
	assert.Error(t, err)
}
