package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/events"
)

func TestRegistryReusesMirrorPerPrincipal(t *testing.T) {
	ctx := context.Background()
	_, repos := setup(t)
	reg := NewRegistry(repos, nil, time.Minute, nil)

	a, err := reg.For(ctx, manager)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	b, err := reg.For(ctx, manager)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	if a != b {
		t.Fatalf("expected the same mirror for the same principal")
	}

	reg.Drop(manager)
	if _, ok := reg.Peek(manager); ok {
		t.Fatalf("dropped mirror should be gone")
	}
	if a.Loaded() {
		t.Fatalf("dropped mirror should be cleared")
	}
}

func TestRegistryMarksOtherSessionsStale(t *testing.T) {
	ctx := context.Background()
	_, repos := setup(t)
	bus := events.NewLocalBus()
	defer bus.Close()

	reg := NewRegistry(repos, bus, time.Minute, nil)
	reg.Start(ctx)
	defer reg.Close()

	coach := domain.Principal{ID: "c1", Role: domain.RoleCoach, OrganizationID: "org-1"}
	outsider := domain.Principal{ID: "x1", Role: domain.RoleCoach, OrganizationID: "org-2"}

	writer, err := reg.For(ctx, manager)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	reader, _ := reg.For(ctx, coach)
	other, _ := reg.For(ctx, outsider)

	if _, err := writer.SaveGoal(ctx, domain.Goal{ParticipantID: "p1", Omschrijving: "Lezen"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !reader.Stale() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !reader.Stale() {
		t.Fatalf("same-tenant mirror should be stale")
	}
	if writer.Stale() {
		t.Fatalf("the writer already holds the change")
	}
	if other.Stale() {
		t.Fatalf("another tenant's mirror must not be touched")
	}

	refreshed, err := reg.For(ctx, coach)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	if refreshed.Stale() || len(refreshed.Snapshot().Goals) != 1 {
		t.Fatalf("stale mirror should refresh on access, got %+v", refreshed.Snapshot().Goals)
	}
}

func TestRegistryResetInvalidatesEveryone(t *testing.T) {
	ctx := context.Background()
	_, repos := setup(t)
	reg := NewRegistry(repos, nil, time.Minute, nil)

	m1, _ := reg.For(ctx, manager)
	m2, _ := reg.For(ctx, domain.Principal{ID: "x", Role: domain.RoleCoach, OrganizationID: "org-2"})

	reg.apply(events.Event{Action: events.ActionReset})
	if !m1.Stale() || !m2.Stale() {
		t.Fatalf("reset should mark every mirror stale")
	}
}

func TestRegistryLostEventsInvalidateEveryone(t *testing.T) {
	ctx := context.Background()
	_, repos := setup(t)
	reg := NewRegistry(repos, nil, time.Minute, nil)

	m, _ := reg.For(ctx, manager)
	reg.apply(events.Event{Action: events.ActionLost})
	if !m.Stale() {
		t.Fatalf("dropped events should mark mirrors stale")
	}
}
