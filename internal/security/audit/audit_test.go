package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/security/requestid"
)

func TestLogActionRecordsPrincipalAndRequest(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := requestid.With(context.Background(), "req-1")
	p := domain.Principal{ID: "c1", Role: domain.RoleCoach, OrganizationID: "org-1"}

	al.LogAction(ctx, p, "delete", "goals", "g1", StatusSucceeded, "")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		"action": "delete", "resource": "goals", "resource_id": "g1", "tenant_id": "org-1",
		"user_id": "c1", "role": "coach", "status": "succeeded", "request_id": "req-1",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %q", k, rec[k], v)
		}
	}
}

func TestLogLoginFailureDropsPrincipal(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.LogLogin(context.Background(), domain.Principal{ID: "x", OrganizationID: "org-1"}, "jan", false)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["status"] != StatusFailed || rec["tenant_id"] != "" || rec["resource_id"] != "jan" {
		t.Fatalf("unexpected record: %v", rec)
	}
}
