package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"real-time-messenger/dto/res"
)

func TestRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "c1", res.UserProfile{ID: "u1", Name: "Ana"})

	if !r.IsOnline("u1") {
		t.Fatal("expected u1 online")
	}
	if !r.Unregister("u1", "c1") {
		t.Fatal("expected unregister to succeed")
	}
	if r.IsOnline("u1") {
		t.Fatal("expected u1 offline")
	}
	if r.Unregister("u1", "c1") {
		t.Error("second unregister must be a no-op")
	}
}

func TestSecondConnectionReplacesEntry(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "c1", res.UserProfile{ID: "u1"})

	replaced := r.Register("u1", "c2", res.UserProfile{ID: "u1"})
	if replaced != "c1" {
		t.Fatalf("expected c1 to be replaced, got %q", replaced)
	}
	if r.Count() != 1 {
		t.Fatalf("expected one entry, got %d", r.Count())
	}

	// the stale connection closing must not take the user offline
	if r.Unregister("u1", "c1") {
		t.Error("stale connection removed the live entry")
	}
	if !r.IsOnline("u1") {
		t.Error("expected u1 to stay online")
	}
	entry, _ := r.Lookup("u1")
	if entry.ConnectionID != "c2" {
		t.Errorf("expected c2, got %q", entry.ConnectionID)
	}
}

func TestListOnline(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "c1", res.UserProfile{ID: "u1", Name: "Ana"})
	r.Register("u2", "c2", res.UserProfile{ID: "u2", Name: "Budi"})

	online := r.ListOnline()
	if len(online) != 2 {
		t.Fatalf("expected 2 online, got %d", len(online))
	}
	seen := map[string]bool{}
	for _, user := range online {
		seen[user.UserID] = true
		if !user.UserInfo.IsOnline {
			t.Errorf("%s: profile must be flagged online", user.UserID)
		}
		if user.UserInfo.ID != user.UserID {
			t.Errorf("profile id mismatch for %s", user.UserID)
		}
	}
	if !seen["u1"] || !seen["u2"] {
		t.Errorf("unexpected list %v", online)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("u%d", i)
			connID := fmt.Sprintf("c%d", i)
			r.Register(userID, connID, res.UserProfile{ID: userID})
			_ = r.IsOnline(userID)
			_ = r.ListOnline()
			if i%2 == 0 {
				r.Unregister(userID, connID)
			}
		}(i)
	}
	wg.Wait()

	if r.Count() != 25 {
		t.Errorf("expected 25 entries, got %d", r.Count())
	}
}

func TestLockUserSerialisesSameUser(t *testing.T) {
	r := NewRegistry()

	unlock := r.LockUser("u1")
	acquired := make(chan struct{})
	done := make(chan struct{})
	go func() {
		release := r.LockUser("u1")
		close(acquired)
		release()
		close(done)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired u1 while it was locked")
	case <-time.After(50 * time.Millisecond):
	}

	other := r.LockUser("u2")
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired u1")
	}
	<-done

	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	if len(r.locks) != 0 {
		t.Errorf("released locks were kept: %d", len(r.locks))
	}
}
