package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnquangdev/call-copilot/pkg/config"
)

func TestGenerate_Success(t *testing.T) {
	// Mock Groq server
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		msgs, ok := payload["messages"].([]interface{})
		if !ok || len(msgs) != 2 {
			t.Fatalf("expected system+user messages, got %v", payload["messages"])
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello from llm"}},
			},
		})
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL})
	got, err := client.Generate(context.Background(), "be terse", "say hello", false, 100)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got != "hello from llm" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.Generate(context.Background(), "", "prompt", true, 0); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.Generate(context.Background(), "", "prompt", false, 0); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeJSON_Fenced(t *testing.T) {
	var out struct {
		Topics []string `json:"topics"`
	}
	if err := DecodeJSON("```json\n{\"topics\":[\"pricing\"]}\n```", &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(out.Topics) != 1 || out.Topics[0] != "pricing" {
		t.Fatalf("unexpected decode result %+v", out)
	}
}
