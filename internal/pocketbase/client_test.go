package pocketbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateRecord(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"id":             "abc123",
			"collectionId":   "col1",
			"collectionName": "tickets",
			"title":          "Login broken",
		})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Token: "admin-token"})
	require.NoError(t, err)

	record, err := client.Create(context.Background(), "tickets", map[string]any{"title": "Login broken"})
	require.NoError(t, err)

	require.Equal(t, "/api/collections/tickets/records", gotPath)
	require.Equal(t, "admin-token", gotAuth)
	require.Equal(t, "Login broken", gotBody["title"])

	require.Equal(t, "abc123", record.ID)
	require.Equal(t, "col1", record.CollectionID)
	require.Equal(t, "Login broken", record.GetString("title"))
	require.NotContains(t, record.Fields, "id")
}

func TestGetOneRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/organizations/records/org1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":                 "org1",
			"name":               "Acme",
			"system_instruction": "Be nice.",
		})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	record, err := client.GetOne(context.Background(), "organizations", "org1")
	require.NoError(t, err)
	require.Equal(t, "org1", record.ID)
	require.Equal(t, "Acme", record.GetString("name"))
	require.Equal(t, "Be nice.", record.GetString("system_instruction"))
}

func TestGetOneNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":404,"message":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.GetOne(context.Background(), "organizations", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":500}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Create(context.Background(), "tickets", map[string]any{"title": "x"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.Health(context.Background()))
}
