package dedup_test

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/dedup"
	"animehub/internal/policy"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cutoff() time.Time { return now.Add(-7 * 24 * time.Hour) }

func entry(id string, episode int, age time.Duration) catalog.Entry {
	return catalog.Entry{
		SecondaryID: id,
		Episode:     episode,
		AiredAt:     now.Add(-age),
		Status:      catalog.StatusReleasing,
		Series:      catalog.Series{Type: "ANIME", Format: "TV", CountryOfOrigin: "JP", Titles: catalog.Titles{Romaji: "Series " + id}},
	}
}

func newReducer() *dedup.Reducer {
	return dedup.New(policy.New(config.Default().Policy), nil)
}

func TestReduceKeepsGreatestEpisode(t *testing.T) {
	entries := []catalog.Entry{
		entry("100", 5, time.Hour),
		entry("200", 2, 2*time.Hour),
		entry("100", 7, 3*time.Hour),
		entry("100", 6, 4*time.Hour),
	}
	result := newReducer().Reduce(entries, cutoff())
	if len(result.Entries) != 2 {
		t.Fatalf("expected two series, got %d", len(result.Entries))
	}
	if result.Entries[0].SecondaryID != "100" || result.Entries[0].Episode != 7 {
		t.Fatalf("expected episode 7 for series 100, got %+v", result.Entries[0])
	}
	if result.Drops[dedup.DropSuperseded] != 2 {
		t.Fatalf("expected two superseded entries, got %v", result.Drops)
	}
}

func TestReduceTiesKeepFirstSeen(t *testing.T) {
	first := entry("100", 5, time.Hour)
	first.ScheduleID = 1
	second := entry("100", 5, 2*time.Hour)
	second.ScheduleID = 2
	result := newReducer().Reduce([]catalog.Entry{first, second}, cutoff())
	if len(result.Entries) != 1 || result.Entries[0].ScheduleID != 1 {
		t.Fatalf("expected first-seen entry to win ties, got %+v", result.Entries)
	}
}

func TestReduceDropRules(t *testing.T) {
	noID := entry("", 1, time.Hour)
	blocked := entry("300", 1, time.Hour)
	blocked.Series.Genres = []string{"Hentai"}
	stale := entry("400", 1, 8*24*time.Hour)
	finished := entry("500", 12, time.Hour)
	finished.Status = catalog.StatusFinished
	kept := entry("600", 3, time.Hour)

	result := newReducer().Reduce([]catalog.Entry{noID, blocked, stale, finished, kept}, cutoff())
	if len(result.Entries) != 1 || result.Entries[0].SecondaryID != "600" {
		t.Fatalf("expected only series 600 to survive, got %+v", result.Entries)
	}
	want := map[dedup.DropReason]int{
		dedup.DropMissingID:    1,
		dedup.DropPolicy:       1,
		dedup.DropStale:        1,
		dedup.DropNotReleasing: 1,
	}
	for reason, count := range want {
		if result.Drops[reason] != count {
			t.Fatalf("drop %s = %d, want %d (all: %v)", reason, result.Drops[reason], count, result.Drops)
		}
	}
	if result.Policy[policy.ReasonBlockedGenre] != 1 {
		t.Fatalf("expected blocked genre counted, got %v", result.Policy)
	}
	if result.Input != 5 || result.Admitted != 1 {
		t.Fatalf("unexpected counters: input=%d admitted=%d", result.Input, result.Admitted)
	}
}

func TestReduceHigherEpisodeOutsideWindowDoesNotWin(t *testing.T) {
	result := newReducer().Reduce([]catalog.Entry{
		entry("100", 4, time.Hour),
		entry("100", 9, 10*24*time.Hour),
	}, cutoff())
	if len(result.Entries) != 1 || result.Entries[0].Episode != 4 {
		t.Fatalf("expected stale higher episode to be dropped, got %+v", result.Entries)
	}
}

func TestReduceUniquenessProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	reducer := newReducer()
	for round := 0; round < 50; round++ {
		var entries []catalog.Entry
		maxByID := map[string]int{}
		for i := 0; i < 40; i++ {
			id := strconv.Itoa(rng.Intn(8))
			ep := 1 + rng.Intn(24)
			entries = append(entries, entry(id, ep, time.Duration(rng.Intn(72))*time.Hour))
			if ep > maxByID[id] {
				maxByID[id] = ep
			}
		}
		result := reducer.Reduce(entries, cutoff())
		seen := map[string]bool{}
		for _, e := range result.Entries {
			if seen[e.SecondaryID] {
				t.Fatalf("round %d: duplicate series %s", round, e.SecondaryID)
			}
			seen[e.SecondaryID] = true
			if e.Episode != maxByID[e.SecondaryID] {
				t.Fatalf("round %d: series %s kept episode %d, max %d", round, e.SecondaryID, e.Episode, maxByID[e.SecondaryID])
			}
		}
		if len(seen) != len(maxByID) {
			t.Fatalf("round %d: expected %d series, got %d", round, len(maxByID), len(seen))
		}
	}
}
