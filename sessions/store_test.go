package sessions

import (
	"strings"
	"testing"
	"time"

	"propshot/apperr"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(ttl, clock.Now), clock
}

func TestPutAndGet(t *testing.T) {
	store, _ := newTestStore(2 * time.Hour)

	sess := store.Put([]string{"cdn.example.com/a.jpg", "cdn.example.com/b.jpg"}, "https://app.example.com/listings/abc")
	if !strings.HasPrefix(sess.ID, "session_") {
		t.Fatalf("unexpected id format %q", sess.ID)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(got.Images))
	}
	if got.ListingURL != "https://app.example.com/listings/abc" {
		t.Fatalf("unexpected listing URL %s", got.ListingURL)
	}
}

func TestGetSnapshotIsolation(t *testing.T) {
	store, _ := newTestStore(2 * time.Hour)
	sess := store.Put([]string{"a.jpg", "b.jpg"}, "url")

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	got.Images[0] = "mutated.jpg"

	again, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if again.Images[0] != "a.jpg" {
		t.Fatalf("stored session was mutated through a snapshot")
	}
}

func TestGetJustBeforeTTL(t *testing.T) {
	store, clock := newTestStore(2 * time.Hour)
	sess := store.Put([]string{"a.jpg"}, "url")

	clock.Advance(2*time.Hour - time.Second)
	if _, err := store.Get(sess.ID); err != nil {
		t.Fatalf("get at TTL - 1s should succeed, got %v", err)
	}
}

func TestGetAfterTTLExpires(t *testing.T) {
	store, clock := newTestStore(2 * time.Hour)
	sess := store.Put([]string{"a.jpg"}, "url")

	clock.Advance(2*time.Hour + time.Second)
	_, err := store.Get(sess.ID)
	if err == nil {
		t.Fatal("get after TTL should fail")
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not_found kind, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(2 * time.Hour)
	sess := store.Put([]string{"a.jpg"}, "url")

	if err := store.Delete(sess.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(sess.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("second delete should be not_found, got %v", err)
	}
}

func TestListSweepsAndOrdersOldestFirst(t *testing.T) {
	store, clock := newTestStore(2 * time.Hour)

	old := store.Put([]string{"old.jpg"}, "old-url")
	clock.Advance(90 * time.Minute)
	fresh := store.Put([]string{"fresh.jpg"}, "fresh-url")

	// Push the first session past its TTL but keep the second alive.
	clock.Advance(45 * time.Minute)

	live := store.List()
	if len(live) != 1 {
		t.Fatalf("expected 1 live session, got %d", len(live))
	}
	if live[0].ID != fresh.ID {
		t.Fatalf("expected %s to survive, got %s", fresh.ID, live[0].ID)
	}
	if _, err := store.Get(old.ID); err == nil {
		t.Fatal("expired session should have been swept")
	}
}

func TestListOrdering(t *testing.T) {
	store, clock := newTestStore(24 * time.Hour)

	first := store.Put([]string{"1.jpg"}, "first")
	clock.Advance(time.Minute)
	second := store.Put([]string{"2.jpg"}, "second")
	clock.Advance(time.Minute)
	third := store.Put([]string{"3.jpg"}, "third")

	live := store.List()
	if len(live) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(live))
	}
	for i, want := range []string{first.ID, second.ID, third.ID} {
		if live[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, live[i].ID, want)
		}
	}
}

func TestSweepReturnsLiveCount(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	store.Put([]string{"a.jpg"}, "a")
	clock.Advance(30 * time.Minute)
	store.Put([]string{"b.jpg"}, "b")

	if n := store.Sweep(); n != 2 {
		t.Fatalf("expected 2 live sessions, got %d", n)
	}

	clock.Advance(45 * time.Minute)
	if n := store.Sweep(); n != 1 {
		t.Fatalf("expected 1 live session after expiry, got %d", n)
	}
}

func TestAge(t *testing.T) {
	store, clock := newTestStore(2 * time.Hour)
	sess := store.Put([]string{"a.jpg"}, "url")

	clock.Advance(42 * time.Minute)
	if age := store.Age(sess); age != 42*time.Minute {
		t.Fatalf("expected age 42m, got %s", age)
	}
}
