package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ferncreek/porchlight/internal/store"
)

func TestConfigured(t *testing.T) {
	if NewClient("", "from@x.com").Configured() {
		t.Error("client without token should not be configured")
	}
	if !NewClient("token", "from@x.com").Configured() {
		t.Error("client with token should be configured")
	}
}

func TestSendMagicLinkUnconfigured(t *testing.T) {
	c := NewClient("", "from@x.com")
	err := c.SendMagicLink("to@x.com", "http://localhost/magic?token=abc", store.DefaultEmailTemplate)
	if err == nil {
		t.Error("expected error from unconfigured client")
	}
}

func TestSendMagicLink(t *testing.T) {
	var got postmarkEmail
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("server-token", "from@x.com", WithEndpoint(srv.URL))

	link := "http://localhost:8787/magic?token=abc123"
	tpl := store.EmailTemplate{
		Subject:    "Sign in",
		Heading:    "Welcome",
		Body:       "Use the button.",
		ButtonText: "Go",
		Footer:     "Or paste:",
	}
	if err := c.SendMagicLink("to@x.com", link, tpl); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotToken != "server-token" {
		t.Errorf("server token = %q, want server-token", gotToken)
	}
	if got.To != "to@x.com" || got.From != "from@x.com" {
		t.Errorf("addresses = %s -> %s", got.From, got.To)
	}
	if got.Subject != "Sign in" {
		t.Errorf("subject = %q, want Sign in", got.Subject)
	}
	if !strings.Contains(got.TextBody, link) {
		t.Error("text body missing the magic link")
	}
	if !strings.Contains(got.HtmlBody, link) || !strings.Contains(got.HtmlBody, "Welcome") {
		t.Error("html body missing link or heading")
	}
}

func TestSendMagicLinkAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("server-token", "from@x.com", WithEndpoint(srv.URL))
	err := c.SendMagicLink("to@x.com", "http://localhost/magic?token=abc", store.DefaultEmailTemplate)
	if err == nil {
		t.Error("expected error for API failure status")
	}
}
