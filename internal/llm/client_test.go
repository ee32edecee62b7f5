package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStreamCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Article \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"75.\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	var got string
	err := client.StreamCompletion(context.Background(), "llama", []ChatMessage{
		{Role: "user", Content: "What does Article 75 say?"},
	}, func(delta string) error {
		got += delta
		return nil
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}
	if got != "Article 75." {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestStreamCompletionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	err := client.StreamCompletion(context.Background(), "llama", nil, func(string) error { return nil })
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestStreamCompletionCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	wantErr := errors.New("stop")
	client := NewClient(server.URL, "", time.Second)
	err := client.StreamCompletion(context.Background(), "llama", nil, func(string) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestStreamCompletionSkipsMalformedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	var got string
	err := client.StreamCompletion(context.Background(), "llama", nil, func(delta string) error {
		got += delta
		return nil
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestStreamCompletionAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)
	if err := client.StreamCompletion(context.Background(), "llama", nil, func(string) error { return nil }); err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}
}
