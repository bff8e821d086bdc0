package emailjs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aryan0dhankhar/coachsync/internal/reliability/circuitbreaker"
)

var creds = Credentials{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", PrivateKey: "priv"}

func TestSendPostsTemplate(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, creds, nil)
	if err := c.Send(context.Background(), map[string]string{"to_email": "a@b.nl", "subject": "Hoi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pub" || got.AccessToken != "priv" {
		t.Fatalf("unexpected credentials: %+v", got)
	}
	if got.TemplateParams["to_email"] != "a@b.nl" {
		t.Fatalf("unexpected params: %+v", got.TemplateParams)
	}
}

func TestSendNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The Public Key is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, creds, nil).Send(context.Background(), nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest || se.Body != "The Public Key is invalid" {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSendOpensCircuitAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, creds, nil)
	for i := 0; i < 5; i++ {
		_ = c.Send(context.Background(), nil)
	}
	if err := c.Send(context.Background(), nil); !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("open circuit must not reach the server, saw %d calls", calls)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("", Credentials{ServiceID: "svc"}, nil)
	if c.Configured() {
		t.Fatalf("missing template and key should be unconfigured")
	}
	if err := c.Send(context.Background(), nil); err == nil {
		t.Fatalf("expected an error")
	}
}
