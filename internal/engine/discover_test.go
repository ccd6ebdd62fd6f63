package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

func seedSession(t *testing.T, te *testEngine, sess *gumshoe.GameSession) {
	t.Helper()
	if err := te.store.Create(context.Background(), sess); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverProgression(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))
	ctx := context.Background()

	// First clue, standing right on it: critical at <=10m is 50 x1.5.
	res, err := te.DiscoverEvidence(ctx, DiscoverRequest{
		GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_1", Location: testCenter,
	})
	if err != nil {
		t.Fatalf("discover evidence_1: %v", err)
	}
	if !res.Found {
		t.Fatalf("found = false, validation %+v", res.Validation)
	}
	if res.BonusAwarded != 75 {
		t.Errorf("bonus = %d, want 75", res.BonusAwarded)
	}
	if res.Evidence == nil || !res.Evidence.Discovered || res.Evidence.DiscoveredAt == nil {
		t.Fatalf("revealed evidence not marked discovered: %+v", res.Evidence)
	}
	if res.DiscoveredCount != 1 || res.TotalEvidence != 3 {
		t.Errorf("progress = %d/%d, want 1/3", res.DiscoveredCount, res.TotalEvidence)
	}
	if res.AllEvidenceFound {
		t.Error("allEvidenceFound after the first clue")
	}
	if !strings.Contains(res.NextClue, "Harbor Park") {
		t.Errorf("clue %q does not point at the remaining POIs", res.NextClue)
	}
	stored := te.store.get(t, "g1")
	if !stored.Evidence[0].Discovered {
		t.Fatal("discovery not persisted")
	}
	if stored.DiscoveryBonus != 75 {
		t.Errorf("stored bonus = %d, want 75", stored.DiscoveryBonus)
	}

	// Second clue from the same spot, 25m out: important in the <=30m band.
	res, err = te.DiscoverEvidence(ctx, DiscoverRequest{
		GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_2", Location: testCenter,
	})
	if err != nil {
		t.Fatalf("discover evidence_2: %v", err)
	}
	if !res.Found {
		t.Fatalf("found = false at 25m, validation %+v", res.Validation)
	}
	if res.BonusAwarded != 36 {
		t.Errorf("bonus = %d, want 36", res.BonusAwarded)
	}
	if !strings.Contains(res.NextClue, "Old Pier") {
		t.Errorf("last-clue hint %q does not name Old Pier", res.NextClue)
	}

	// Third clue at its own location finishes the hunt.
	res, err = te.DiscoverEvidence(ctx, DiscoverRequest{
		GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_3", Location: offsetLat(testCenter, 2000),
	})
	if err != nil {
		t.Fatalf("discover evidence_3: %v", err)
	}
	if !res.AllEvidenceFound {
		t.Error("allEvidenceFound = false with everything discovered")
	}
	if !strings.Contains(res.NextClue, "name the culprit") {
		t.Errorf("clue %q should prompt for a deduction", res.NextClue)
	}

	// Finding everything does not end the game; only a deduction does.
	stored = te.store.get(t, "g1")
	if stored.Status != gumshoe.StatusActive {
		t.Errorf("status = %s, want active with all evidence found", stored.Status)
	}
	if want := 75 + 36 + 30; stored.DiscoveryBonus != want {
		t.Errorf("total bonus = %d, want %d", stored.DiscoveryBonus, want)
	}
}

func TestDiscoverTooFar(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))

	// 80m from the target with a 10m-accuracy fix: effective radius 60m.
	res, err := te.DiscoverEvidence(context.Background(), DiscoverRequest{
		GameID:     "g1",
		PlayerID:   "p1",
		EvidenceID: "evidence_1",
		Location:   offsetLat(testCenter, 80),
		Reading: &gumshoe.GPSReading{
			Location:   offsetLat(testCenter, 80),
			AccuracyM:  10,
			CapturedAt: testNow,
		},
	})
	if err != nil {
		t.Fatalf("DiscoverEvidence: %v", err)
	}
	if res.Found {
		t.Fatal("found = true from 80m away")
	}
	if res.Validation.EffectiveRadiusM != 60 {
		t.Errorf("effective radius = %v, want 60", res.Validation.EffectiveRadiusM)
	}
	if res.Validation.DistanceM < 79 || res.Validation.DistanceM > 81 {
		t.Errorf("distance = %v, want about 80", res.Validation.DistanceM)
	}
	if res.Validation.WithinRadius || res.Validation.Suspicious {
		t.Errorf("validation flags wrong: %+v", res.Validation)
	}
	if res.Evidence != nil || res.BonusAwarded != 0 || res.NextClue != "" {
		t.Errorf("negative result leaks success fields: %+v", res)
	}

	if te.store.saves != 0 {
		t.Errorf("saves = %d, want 0: a miss must not persist", te.store.saves)
	}
	if te.store.get(t, "g1").Evidence[0].Discovered {
		t.Error("evidence marked discovered on a miss")
	}
}

func TestDiscoverSuspiciousAccuracy(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))

	// Standing on the target, but no honest receiver reports 0.2m accuracy.
	res, err := te.DiscoverEvidence(context.Background(), DiscoverRequest{
		GameID:     "g1",
		PlayerID:   "p1",
		EvidenceID: "evidence_1",
		Location:   testCenter,
		Reading: &gumshoe.GPSReading{
			Location:   testCenter,
			AccuracyM:  0.2,
			CapturedAt: testNow,
		},
	})
	if err != nil {
		t.Fatalf("DiscoverEvidence: %v", err)
	}
	if res.Found {
		t.Fatal("found = true on a flagged reading")
	}
	if !res.Validation.WithinRadius {
		t.Error("withinRadius = false, the position itself was fine")
	}
	if !res.Validation.Suspicious {
		t.Fatalf("suspicious = false, flags %v", res.Validation.Flags)
	}
	hasFlag := false
	for _, f := range res.Validation.Flags {
		if f == geo.FlagSuspiciousAccuracy {
			hasFlag = true
		}
	}
	if !hasFlag {
		t.Errorf("flags = %v, want %s", res.Validation.Flags, geo.FlagSuspiciousAccuracy)
	}
	if te.store.saves != 0 {
		t.Errorf("saves = %d, want 0", te.store.saves)
	}
}

func TestDiscoverTeleportFlagged(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))
	ctx := context.Background()

	res, err := te.DiscoverEvidence(ctx, DiscoverRequest{
		GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_1", Location: testCenter,
		Reading: &gumshoe.GPSReading{Location: testCenter, AccuracyM: 5, CapturedAt: testNow},
	})
	if err != nil || !res.Found {
		t.Fatalf("first discovery failed: res=%+v err=%v", res, err)
	}

	// 2km in one second is not walking.
	res, err = te.DiscoverEvidence(ctx, DiscoverRequest{
		GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_3", Location: offsetLat(testCenter, 2000),
		Reading: &gumshoe.GPSReading{
			Location:   offsetLat(testCenter, 2000),
			AccuracyM:  5,
			CapturedAt: testNow.Add(time.Second),
		},
	})
	if err != nil {
		t.Fatalf("DiscoverEvidence: %v", err)
	}
	if res.Found {
		t.Fatal("found = true on a teleport")
	}
	flags := strings.Join(res.Validation.Flags, ",")
	if !strings.Contains(flags, geo.FlagImpossibleMovement) || !strings.Contains(flags, geo.FlagLocationJump) {
		t.Errorf("flags = %v, want movement and jump indicators", res.Validation.Flags)
	}
	if te.store.get(t, "g1").Evidence[2].Discovered {
		t.Error("teleport discovery persisted")
	}
}

func TestDiscoverTwiceRejected(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))
	ctx := context.Background()
	req := DiscoverRequest{GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_1", Location: testCenter}

	if _, err := te.DiscoverEvidence(ctx, req); err != nil {
		t.Fatalf("first discovery: %v", err)
	}
	if _, err := te.DiscoverEvidence(ctx, req); !errors.Is(err, gumshoe.ErrAlreadyDiscovered) {
		t.Fatalf("err = %v, want ErrAlreadyDiscovered", err)
	}
}

func TestDiscoverGuards(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))
	completed := testSession("done", "p1")
	completed.Status = gumshoe.StatusCompleted
	seedSession(t, te, completed)

	tests := []struct {
		name string
		req  DiscoverRequest
		want error
	}{
		{"unknown game", DiscoverRequest{GameID: "ghost", PlayerID: "p1", EvidenceID: "evidence_1", Location: testCenter}, gumshoe.ErrNotFound},
		{"wrong player", DiscoverRequest{GameID: "g1", PlayerID: "intruder", EvidenceID: "evidence_1", Location: testCenter}, gumshoe.ErrForbidden},
		{"completed game", DiscoverRequest{GameID: "done", PlayerID: "p1", EvidenceID: "evidence_1", Location: testCenter}, gumshoe.ErrAlreadyCompleted},
		{"unknown evidence", DiscoverRequest{GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_9", Location: testCenter}, gumshoe.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := te.DiscoverEvidence(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if te.store.saves != 0 {
		t.Errorf("saves = %d, want 0: guard paths must not persist", te.store.saves)
	}
}

func TestDiscoverConcurrentExactlyOnce(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))

	const workers = 16
	var wg sync.WaitGroup
	var found, already atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := te.DiscoverEvidence(context.Background(), DiscoverRequest{
				GameID: "g1", PlayerID: "p1", EvidenceID: "evidence_1", Location: testCenter,
			})
			switch {
			case err == nil && res.Found:
				found.Add(1)
			case errors.Is(err, gumshoe.ErrAlreadyDiscovered):
				already.Add(1)
			default:
				t.Errorf("unexpected outcome: res=%+v err=%v", res, err)
			}
		}()
	}
	wg.Wait()

	if found.Load() != 1 {
		t.Fatalf("found %d times, want exactly once", found.Load())
	}
	if already.Load() != workers-1 {
		t.Errorf("already-discovered = %d, want %d", already.Load(), workers-1)
	}
	stored := te.store.get(t, "g1")
	if !stored.Evidence[0].Discovered {
		t.Error("discovery lost")
	}
	if stored.DiscoveryBonus != 75 {
		t.Errorf("bonus = %d, want 75: double-counted discovery", stored.DiscoveryBonus)
	}
}

func TestNearbyEvidence(t *testing.T) {
	te := newTestEngine(t)
	sess := testSession("g1", "p1")
	sess.Evidence[1].Discovered = true
	seedSession(t, te, sess)

	items, err := te.NearbyEvidence(context.Background(), "g1", "p1", testCenter)
	if err != nil {
		t.Fatalf("NearbyEvidence: %v", err)
	}
	// evidence_1 is at the player's feet; evidence_2 is discovered and
	// evidence_3 is 2km out, so neither shows up.
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (%+v)", len(items), items)
	}
	if items[0].EvidenceID != "evidence_1" || items[0].POIName != "Canal Cafe" {
		t.Errorf("wrong item: %+v", items[0])
	}
	if items[0].DistanceM > 1 {
		t.Errorf("distance = %v, want about 0", items[0].DistanceM)
	}

	if _, err := te.NearbyEvidence(context.Background(), "g1", "intruder", testCenter); !errors.Is(err, gumshoe.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
