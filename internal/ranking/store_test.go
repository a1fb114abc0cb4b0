package ranking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gamestr/scorestr/internal/games"
)

var snakeKey = games.Key{Developer: "dev1", Game: "snake"}

func TestUpdateFirstSubmission(t *testing.T) {
	s := NewStore()

	result := s.Update(snakeKey, 100, "playerA", "ev1", 1000)

	if !result.IsNewRecord {
		t.Error("Expected first submission to be a new record")
	}
	if result.PreviousHolder != nil {
		t.Error("Expected no previous holder for first submission")
	}
	if !result.IsTopThree || result.Rank != 1 {
		t.Errorf("Expected rank 1 in top three, got rank %d", result.Rank)
	}
}

func TestUpdateSecondPlaceIsTopThree(t *testing.T) {
	s := NewStore()
	s.Update(snakeKey, 100, "playerA", "ev1", 1000)

	result := s.Update(snakeKey, 50, "playerB", "ev2", 1001)

	if result.IsNewRecord {
		t.Error("Lower score must not be a new record")
	}
	if !result.IsTopThree || result.Rank != 2 {
		t.Errorf("Expected top three rank 2, got isTopThree=%v rank=%d", result.IsTopThree, result.Rank)
	}
}

func TestUpdateDethroning(t *testing.T) {
	s := NewStore()
	s.Update(snakeKey, 100, "playerA", "ev1", 1000)
	s.Update(snakeKey, 50, "playerB", "ev2", 1001)

	result := s.Update(snakeKey, 200, "playerC", "ev3", 1002)

	if !result.IsNewRecord {
		t.Error("Expected new record")
	}
	if result.PreviousHolder == nil {
		t.Fatal("Expected previous holder to be populated")
	}
	if result.PreviousHolder.Player != "playerA" {
		t.Errorf("Expected previous holder playerA, got %s", result.PreviousHolder.Player)
	}
	if result.PreviousHolder.Score != 100 {
		t.Errorf("Expected previous score 100, got %d", result.PreviousHolder.Score)
	}
	if result.Rank != 1 {
		t.Errorf("Expected rank 1, got %d", result.Rank)
	}
}

func TestUpdateRebeatOwnRecord(t *testing.T) {
	s := NewStore()
	s.Update(snakeKey, 100, "playerA", "ev1", 1000)

	result := s.Update(snakeKey, 150, "playerA", "ev2", 1001)

	if !result.IsNewRecord {
		t.Error("Expected new record")
	}
	if result.PreviousHolder != nil {
		t.Error("Re-beating your own record must not report a previous holder")
	}
}

func TestUpdateFourthPlaceFallsOut(t *testing.T) {
	s := NewStore()
	s.Update(snakeKey, 200, "playerC", "ev1", 1000)
	s.Update(snakeKey, 100, "playerA", "ev2", 1001)
	s.Update(snakeKey, 50, "playerB", "ev3", 1002)

	result := s.Update(snakeKey, 10, "playerD", "ev4", 1003)

	if result.IsNewRecord {
		t.Error("Score below all entries must not be a record")
	}
	if result.IsTopThree || result.Rank != 0 {
		t.Errorf("Expected no top-three placement, got isTopThree=%v rank=%d", result.IsTopThree, result.Rank)
	}

	top := s.TopScores(snakeKey)
	if len(top) != 3 {
		t.Fatalf("Expected top list length 3, got %d", len(top))
	}
	for _, entry := range top {
		if entry.EventID == "ev4" {
			t.Error("Fourth-place submission must not remain in top three")
		}
	}
}

func TestUpdateTieKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Update(snakeKey, 100, "playerA", "ev1", 1000)

	result := s.Update(snakeKey, 100, "playerB", "ev2", 1001)

	if result.IsNewRecord {
		t.Error("Equal score must not beat the record")
	}
	if result.Rank != 2 {
		t.Errorf("Expected tie to rank below earlier submission, got rank %d", result.Rank)
	}

	top := s.TopScores(snakeKey)
	if top[0].EventID != "ev1" || top[1].EventID != "ev2" {
		t.Errorf("Expected insertion order preserved on ties, got %s, %s", top[0].EventID, top[1].EventID)
	}
}

func TestHolderTracksMaximum(t *testing.T) {
	s := NewStore()
	scores := []int64{50, 200, 100, 175, 300, 10, 299}

	for i, score := range scores {
		s.Update(snakeKey, score, fmt.Sprintf("player%d", i), fmt.Sprintf("ev%d", i), int64(1000+i))
	}

	holder := s.Holder(snakeKey)
	if holder == nil {
		t.Fatal("Expected a holder")
	}
	if holder.Score != 300 {
		t.Errorf("Expected holder score 300 (maximum seen), got %d", holder.Score)
	}

	top := s.TopScores(snakeKey)
	want := []int64{300, 299, 200}
	if len(top) != 3 {
		t.Fatalf("Expected 3 top entries, got %d", len(top))
	}
	for i, entry := range top {
		if entry.Score != want[i] {
			t.Errorf("Expected top[%d] score %d, got %d", i, want[i], entry.Score)
		}
	}
}

func TestUnknownKeyIsNoPriorState(t *testing.T) {
	s := NewStore()

	if s.Holder(games.Key{Developer: "nobody", Game: "nothing"}) != nil {
		t.Error("Expected nil holder for unknown key")
	}
	if top := s.TopScores(games.Key{Developer: "nobody", Game: "nothing"}); len(top) != 0 {
		t.Errorf("Expected empty top list, got %d entries", len(top))
	}
}

func TestLoadHistory(t *testing.T) {
	s := NewStore()

	entries := []HistoryEntry{
		{Key: snakeKey, Score: 50, Player: "playerB", EventID: "ev2", Timestamp: 1001},
		{Key: snakeKey, Score: 200, Player: "playerC", EventID: "ev3", Timestamp: 1002},
		{Key: snakeKey, Score: 100, Player: "playerA", EventID: "ev1", Timestamp: 1000},
		{Key: snakeKey, Score: 10, Player: "playerD", EventID: "ev4", Timestamp: 1003},
	}
	s.LoadHistory(entries)

	holder := s.Holder(snakeKey)
	if holder == nil || holder.Score != 200 || holder.Player != "playerC" {
		t.Errorf("Expected holder playerC with 200, got %+v", holder)
	}

	top := s.TopScores(snakeKey)
	want := []int64{200, 100, 50}
	if len(top) != 3 {
		t.Fatalf("Expected 3 top entries, got %d", len(top))
	}
	for i, entry := range top {
		if entry.Score != want[i] {
			t.Errorf("Expected top[%d] score %d, got %d", i, want[i], entry.Score)
		}
	}
}

func TestBackfillEquivalence(t *testing.T) {
	// Loading history must converge to the same state as processing the
	// same submissions live in score order.
	entries := []HistoryEntry{
		{Key: snakeKey, Score: 120, Player: "playerA", EventID: "ev1", Timestamp: 1000},
		{Key: snakeKey, Score: 340, Player: "playerB", EventID: "ev2", Timestamp: 1001},
		{Key: snakeKey, Score: 90, Player: "playerC", EventID: "ev3", Timestamp: 1002},
		{Key: snakeKey, Score: 200, Player: "playerD", EventID: "ev4", Timestamp: 1003},
	}

	backfilled := NewStore()
	backfilled.LoadHistory(entries)

	live := NewStore()
	for _, e := range entries {
		live.Update(e.Key, e.Score, e.Player, e.EventID, e.Timestamp)
	}

	bh, lh := backfilled.Holder(snakeKey), live.Holder(snakeKey)
	if bh.EventID != lh.EventID || bh.Score != lh.Score {
		t.Errorf("Holder mismatch: backfill %+v live %+v", bh, lh)
	}

	bt, lt := backfilled.TopScores(snakeKey), live.TopScores(snakeKey)
	if len(bt) != len(lt) {
		t.Fatalf("Top list length mismatch: %d vs %d", len(bt), len(lt))
	}
	for i := range bt {
		if bt[i].EventID != lt[i].EventID {
			t.Errorf("Top[%d] mismatch: backfill %s live %s", i, bt[i].EventID, lt[i].EventID)
		}
	}
}

func TestLoadHistoryMultipleGames(t *testing.T) {
	s := NewStore()
	tetrisKey := games.Key{Developer: "dev2", Game: "tetris"}

	s.LoadHistory([]HistoryEntry{
		{Key: snakeKey, Score: 100, Player: "playerA", EventID: "ev1", Timestamp: 1000},
		{Key: tetrisKey, Score: 500, Player: "playerB", EventID: "ev2", Timestamp: 1001},
	})

	if h := s.Holder(snakeKey); h == nil || h.Score != 100 {
		t.Errorf("Expected snake holder 100, got %+v", h)
	}
	if h := s.Holder(tetrisKey); h == nil || h.Score != 500 {
		t.Errorf("Expected tetris holder 500, got %+v", h)
	}

	stats := s.Stats()
	if stats.GamesTracked != 2 || stats.HighScores != 2 {
		t.Errorf("Expected 2 games and 2 high scores, got %+v", stats)
	}
}

func TestInitPreCreatesStates(t *testing.T) {
	s := NewStore()
	s.Init([]games.Key{snakeKey, {Developer: "dev2", Game: "tetris"}})

	stats := s.Stats()
	if stats.GamesTracked != 2 {
		t.Errorf("Expected 2 tracked games after Init, got %d", stats.GamesTracked)
	}
	if stats.HighScores != 0 {
		t.Errorf("Expected 0 high scores after Init, got %d", stats.HighScores)
	}
}

func TestConcurrentUpdatesDistinctKeys(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		key := games.Key{Developer: "dev", Game: fmt.Sprintf("game%d", g)}
		wg.Add(1)
		go func(key games.Key) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Update(key, int64(i), "player", fmt.Sprintf("%s-ev%d", key.Game, i), int64(i))
			}
		}(key)
	}
	wg.Wait()

	stats := s.Stats()
	if stats.GamesTracked != 8 || stats.HighScores != 8 {
		t.Errorf("Expected 8 games with holders, got %+v", stats)
	}

	for g := 0; g < 8; g++ {
		key := games.Key{Developer: "dev", Game: fmt.Sprintf("game%d", g)}
		if h := s.Holder(key); h == nil || h.Score != 99 {
			t.Errorf("Expected holder score 99 for %s, got %+v", key.Game, h)
		}
	}
}

func TestConcurrentUpdatesSameKeySerialize(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Update(snakeKey, int64(i), fmt.Sprintf("player%d", i), fmt.Sprintf("ev%d", i), int64(i))
		}(i)
	}
	wg.Wait()

	holder := s.Holder(snakeKey)
	if holder == nil || holder.Score != 49 {
		t.Errorf("Expected holder score 49 regardless of arrival order, got %+v", holder)
	}

	top := s.TopScores(snakeKey)
	want := []int64{49, 48, 47}
	for i, entry := range top {
		if entry.Score != want[i] {
			t.Errorf("Expected top[%d] score %d, got %d", i, want[i], entry.Score)
		}
	}
}
