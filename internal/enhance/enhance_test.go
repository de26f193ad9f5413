package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/topics"
)

func chatServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"boom"}}`)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func sampleCluster() topics.Cluster {
	return topics.Cluster{
		Label:    "Your Python Projects",
		Keywords: []string{"python", "flask"},
		Conversations: []*convo.Conversation{
			{
				Title: "Flask help",
				Messages: []convo.Message{{
					Role:      convo.RoleUser,
					Fragments: []convo.Fragment{{Kind: convo.FragmentText, Text: "Help with my flask app"}},
				}},
			},
		},
	}
}

func TestEnhanceProfileSuccess(t *testing.T) {
	srv := chatServer(t, "# Enhanced Profile", http.StatusOK)
	defer srv.Close()
	p, err := NewProvider(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatal(err)
	}

	got := EnhanceProfile(context.Background(), p, "# Heuristic", sampleCluster().Conversations)
	if got != "# Enhanced Profile" {
		t.Fatalf("got %q", got)
	}
}

func TestEnhanceProfileFailureKeepsHeuristic(t *testing.T) {
	srv := chatServer(t, "", http.StatusInternalServerError)
	defer srv.Close()
	p, err := NewProvider(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	got := EnhanceProfile(context.Background(), p, "# Heuristic", nil)
	if got != "# Heuristic" {
		t.Fatalf("got %q, want heuristic preserved", got)
	}
}

func TestEnhanceClusterSuccess(t *testing.T) {
	srv := chatServer(t, "# Enhanced Digest", http.StatusOK)
	defer srv.Close()
	p, err := NewProvider(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	got, err := EnhanceCluster(context.Background(), p, sampleCluster(), "# Heuristic Digest")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Enhanced Digest" {
		t.Fatalf("got %q", got)
	}
}

func TestEnhanceClusterFailureSynthesizesFallback(t *testing.T) {
	srv := chatServer(t, "", http.StatusInternalServerError)
	defer srv.Close()
	p, err := NewProvider(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	got, err := EnhanceCluster(context.Background(), p, sampleCluster(), "# Heuristic Digest")
	if err == nil {
		t.Fatal("want error reported")
	}
	if !strings.Contains(got, "# Your Python Projects") {
		t.Errorf("fallback missing heading:\n%s", got)
	}
	if !strings.Contains(got, "Enhancement unavailable") {
		t.Errorf("fallback missing failure note:\n%s", got)
	}
	if !strings.Contains(got, "python, flask") {
		t.Errorf("fallback missing keywords:\n%s", got)
	}
}

func TestNewProviderRequiresURL(t *testing.T) {
	if _, err := NewProvider(Config{}); err == nil {
		t.Fatal("want error for missing URL")
	}
}

func TestProviderName(t *testing.T) {
	p, err := NewProvider(Config{BaseURL: "http://x", Model: "m1"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai-compatible/m1" {
		t.Fatalf("got %q", p.Name())
	}
}

func TestExcerptTruncates(t *testing.T) {
	c := &convo.Conversation{Messages: []convo.Message{{
		Role:      convo.RoleUser,
		Fragments: []convo.Fragment{{Kind: convo.FragmentText, Text: strings.Repeat("a", 1000)}},
	}}}
	if got := excerpt(c); len(got) != excerptLen {
		t.Fatalf("len = %d, want %d", len(got), excerptLen)
	}
}
