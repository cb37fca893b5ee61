package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreatePlayerAndLookup(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreatePlayer("alice", "hash")
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected non-zero player id")
	}

	p, err := db.GetPlayerByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.ID != id || p.Username != "alice" {
		t.Errorf("lookup got %+v", p)
	}

	missing, err := db.GetPlayerByUsername("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("missing player should be nil, nil")
	}

	exists, err := db.UsernameExists("alice")
	if err != nil || !exists {
		t.Error("alice should exist")
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.CreatePlayer("bob", "h1"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreatePlayer("bob", "h2"); err == nil {
		t.Error("duplicate username should fail")
	}
}

func TestStatsAccumulate(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("carol", "h")

	s, err := db.GetStats(id)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil || s.Playtime != 0 || s.Grabs != 0 {
		t.Fatalf("fresh stats should be zeroed, got %+v", s)
	}

	if err := db.UpdateStats(id, 120.5, 340.25, 3, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateStats(id, 60, 100, 2, 0, 1); err != nil {
		t.Fatal(err)
	}

	s, err = db.GetStats(id)
	if err != nil {
		t.Fatal(err)
	}
	if s.Playtime != 180.5 || s.Distance != 440.25 || s.Grabs != 5 || s.Throws != 1 || s.Breaks != 1 {
		t.Errorf("stats did not accumulate: %+v", s)
	}
}

func TestSettingsUpsert(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetSetting("jwt_secret")
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("unset key should read empty, got %q", v)
	}

	if err := db.SetSetting("jwt_secret", "aa"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting("jwt_secret", "bb"); err != nil {
		t.Fatal(err)
	}
	v, _ = db.GetSetting("jwt_secret")
	if v != "bb" {
		t.Errorf("upsert should overwrite, got %q", v)
	}
}

func TestMilestoneUnlockOnce(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("dave", "h")

	newly, err := db.UnlockMilestone(id, "first_grab")
	if err != nil || !newly {
		t.Fatalf("first unlock: newly=%v err=%v", newly, err)
	}
	newly, err = db.UnlockMilestone(id, "first_grab")
	if err != nil || newly {
		t.Fatalf("repeat unlock should be ignored: newly=%v err=%v", newly, err)
	}

	ms, err := db.GetMilestones(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 1 || ms[0] != "first_grab" {
		t.Errorf("milestones = %v", ms)
	}
}

func TestCheckMilestonesFromStats(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("erin", "h")

	// Nothing reached yet
	if got := CheckMilestones(db, id); len(got) != 0 {
		t.Errorf("fresh player unlocked %v", got)
	}

	db.UpdateStats(id, 0, 0, 1, 0, 0)
	got := CheckMilestones(db, id)
	if len(got) != 1 || got[0].ID != "first_grab" {
		t.Fatalf("after first grab: %v", got)
	}

	// Idempotent: already unlocked, nothing new
	if got := CheckMilestones(db, id); len(got) != 0 {
		t.Errorf("second check re-unlocked %v", got)
	}

	// Cross several thresholds in one flush
	db.UpdateStats(id, 36000, 42195, 99, 1, 50)
	got = CheckMilestones(db, id)
	ids := map[string]bool{}
	for _, m := range got {
		ids[m.ID] = true
	}
	for _, want := range []string{"pack_mule", "first_throw", "marathon", "butterfingers", "regular"} {
		if !ids[want] {
			t.Errorf("expected %s in %v", want, got)
		}
	}
	if ids["hoarder"] || ids["pitcher"] {
		t.Errorf("unreached milestones unlocked: %v", got)
	}
}
