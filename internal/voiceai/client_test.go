package voiceai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "spamstopper/pkg/domain-errors"
)

func TestCreateCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/call", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "assistant-1", req["assistantId"])
		customer, ok := req["customer"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "+15551234567", customer["number"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Call{ID: "call-123", Status: "queued", AssistantID: "assistant-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	call, err := client.CreateCall(context.Background(), CreateCallParams{
		AssistantID:    "assistant-1",
		PhoneNumberID:  "pn-1",
		CustomerNumber: "+15551234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "call-123", call.ID)
	assert.Equal(t, "queued", call.Status)
}

func TestCreateCallRequiresAssistant(t *testing.T) {
	client := NewClient("http://unused", "key", nil, nil)
	_, err := client.CreateCall(context.Background(), CreateCallParams{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestGetCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/call/call-123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Call{ID: "call-123", Status: "ended", EndedReason: "customer-ended-call"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	call, err := client.GetCall(context.Background(), "call-123")
	require.NoError(t, err)
	assert.Equal(t, "ended", call.Status)
	assert.Equal(t, "customer-ended-call", call.EndedReason)
}

func TestAPIErrorSurfacesAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"upstream exploded"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	_, err := client.GetCall(context.Background(), "call-123")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestListAssistants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Assistant{{ID: "a1", Name: "Herbert"}, {ID: "a2", Name: "Jolene"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", nil, nil)
	assistants, err := client.ListAssistants(context.Background())
	require.NoError(t, err)
	require.Len(t, assistants, 2)
	assert.Equal(t, "Herbert", assistants[0].Name)
}
