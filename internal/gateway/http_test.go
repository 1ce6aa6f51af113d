package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueWriteDestination(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/uploads/sign", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Destination{
			UploadURL: "http://storage.local/put/abc",
			PublicURL: "http://storage.local/get/abc",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", 5*time.Second)
	dest, err := c.IssueWriteDestination(context.Background(), "call.pdf", "application/pdf", "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "http://storage.local/put/abc", dest.UploadURL)
	assert.Equal(t, "http://storage.local/get/abc", dest.PublicURL)
	assert.Equal(t, map[string]string{
		"name":         "call.pdf",
		"content_kind": "application/pdf",
		"owner_id":     "ws-1",
	}, gotBody)
}

func TestIssueWriteDestinationRejectsEmptyURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Destination{})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	_, err := c.IssueWriteDestination(context.Background(), "call.pdf", "application/pdf", "ws-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no upload URL")
}

func TestTransferBinary(t *testing.T) {
	var gotKind string
	var gotData []byte
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotKind = r.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	c := NewClient("http://unused.local", "", 5*time.Second)
	dest := Destination{UploadURL: storage.URL + "/put/abc"}
	err := c.TransferBinary(context.Background(), dest, []byte("payload"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", gotKind)
	assert.Equal(t, []byte("payload"), gotData)
}

func TestTransferBinaryFailsOnErrorStatus(t *testing.T) {
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signature expired", http.StatusForbidden)
	}))
	defer storage.Close()

	c := NewClient("http://unused.local", "", 5*time.Second)
	err := c.TransferBinary(context.Background(), Destination{UploadURL: storage.URL}, []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "signature expired")
}

func TestSubmitForAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/analyses", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello world", body["content"])
		require.Equal(t, "ws-1", body["workspace_id"])
		json.NewEncoder(w).Encode(map[string]string{"id": "analysis-42"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	id, err := c.SubmitForAnalysis(context.Background(), "hello world", "text/plain", "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "analysis-42", id)
}

func TestSubmitForAnalysisFailsWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	_, err := c.SubmitForAnalysis(context.Background(), "x", "text/plain", "ws-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analysis id")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	assert.NoError(t, c.Ping(context.Background()))
}
