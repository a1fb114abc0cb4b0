// Package ranking maintains the authoritative per-game ranking state: the
// current record holder and the top-3 list for every monitored game. The
// store is the only component that decides whether a submission is a new
// record or a top-3 entry; the classifier consumes its verdicts.
package ranking

import (
	"sort"
	"sync"

	"github.com/gamestr/scorestr/internal/games"
)

// topSize is the length of the per-game top list.
const topSize = 3

// Entry is one ranked submission: either the current record holder for a
// game or a member of its top-3 list.
type Entry struct {
	Score     int64
	Player    string
	EventID   string
	Timestamp int64
}

// UpdateResult reports how a submission ranked against a game's state at the
// moment it was applied.
type UpdateResult struct {
	// IsNewRecord is true when the submission became the record holder.
	IsNewRecord bool
	// IsTopThree is true when the submission landed in the top-3 list.
	IsTopThree bool
	// Rank is the 1-based position in the top-3 list, or 0 when the
	// submission fell outside it.
	Rank int
	// PreviousHolder is the record holder that was displaced, set only
	// when a different player held the record before. Re-beating your own
	// record leaves it nil.
	PreviousHolder *Entry
}

// state holds one game's ranking. Reads and read-modify-write updates for a
// single game serialize on mu; different games proceed concurrently.
type state struct {
	mu     sync.Mutex
	holder *Entry
	top    []Entry // sorted by score descending, length <= topSize
}

// Store owns all per-game ranking state. Construct once at startup and hand
// to the pipeline; there is no ambient global state.
type Store struct {
	mu     sync.RWMutex
	states map[games.Key]*state
}

// NewStore creates an empty ranking store.
func NewStore() *Store {
	return &Store{
		states: make(map[games.Key]*state),
	}
}

// Init pre-creates empty state for the given game keys so that Stats reports
// monitored games before their first submission arrives.
func (s *Store) Init(keys []games.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if _, ok := s.states[key]; !ok {
			s.states[key] = &state{}
		}
	}
}

// getState returns the state for a key, creating it lazily. Unknown keys are
// "no prior state", never an error.
func (s *Store) getState(key games.Key) *state {
	s.mu.RLock()
	st, ok := s.states[key]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.states[key]; ok {
		return st
	}
	st = &state{}
	s.states[key] = st
	return st
}

// Update applies one submission to a game's ranking state and reports how it
// ranked. A submission can be both a new record and rank 1 of the top-3; tier
// precedence is the classifier's concern.
func (s *Store) Update(key games.Key, score int64, player, eventID string, timestamp int64) UpdateResult {
	st := s.getState(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	var result UpdateResult

	if st.holder == nil || score > st.holder.Score {
		if st.holder != nil && st.holder.Player != player {
			prev := *st.holder
			result.PreviousHolder = &prev
		}
		st.holder = &Entry{
			Score:     score,
			Player:    player,
			EventID:   eventID,
			Timestamp: timestamp,
		}
		result.IsNewRecord = true
		result.Rank = 1
	}

	// Insert into the top list, re-sort, truncate. The sort is stable and
	// keyed purely on score: equal scores keep insertion order, so the
	// submission that arrived first ranks higher.
	st.top = append(st.top, Entry{
		Score:     score,
		Player:    player,
		EventID:   eventID,
		Timestamp: timestamp,
	})
	sort.SliceStable(st.top, func(i, j int) bool {
		return st.top[i].Score > st.top[j].Score
	})
	if len(st.top) > topSize {
		st.top = st.top[:topSize]
	}

	for i := range st.top {
		if st.top[i].EventID == eventID {
			result.IsTopThree = true
			result.Rank = i + 1
			break
		}
	}

	return result
}

// HistoryEntry is one historical submission fed to LoadHistory.
type HistoryEntry struct {
	Key       games.Key
	Score     int64
	Player    string
	EventID   string
	Timestamp int64
}

// LoadHistory seeds the store from historical submissions. Each game's
// entries are sorted by score descending and the holder and top-3 are set
// directly, bypassing Update's dethroning bookkeeping: backfill must converge
// to the final state without producing announcements.
func (s *Store) LoadHistory(entries []HistoryEntry) {
	byGame := make(map[games.Key][]HistoryEntry)
	for _, entry := range entries {
		byGame[entry.Key] = append(byGame[entry.Key], entry)
	}

	for key, gameEntries := range byGame {
		sort.SliceStable(gameEntries, func(i, j int) bool {
			return gameEntries[i].Score > gameEntries[j].Score
		})

		st := s.getState(key)
		st.mu.Lock()

		best := gameEntries[0]
		st.holder = &Entry{
			Score:     best.Score,
			Player:    best.Player,
			EventID:   best.EventID,
			Timestamp: best.Timestamp,
		}

		n := len(gameEntries)
		if n > topSize {
			n = topSize
		}
		st.top = make([]Entry, 0, n)
		for _, e := range gameEntries[:n] {
			st.top = append(st.top, Entry{
				Score:     e.Score,
				Player:    e.Player,
				EventID:   e.EventID,
				Timestamp: e.Timestamp,
			})
		}

		st.mu.Unlock()
	}
}

// Holder returns the current record holder for a game, or nil when the game
// has no submissions yet.
func (s *Store) Holder(key games.Key) *Entry {
	s.mu.RLock()
	st, ok := s.states[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.holder == nil {
		return nil
	}
	holder := *st.holder
	return &holder
}

// TopScores returns a copy of the top-3 list for a game, sorted by score
// descending.
func (s *Store) TopScores(key games.Key) []Entry {
	s.mu.RLock()
	st, ok := s.states[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	top := make([]Entry, len(st.top))
	copy(top, st.top)
	return top
}

// Stats summarizes the store for the status surface.
type Stats struct {
	GamesTracked int
	HighScores   int
}

// Stats returns the number of tracked games and how many of them have a
// record holder.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{GamesTracked: len(s.states)}
	for _, st := range s.states {
		st.mu.Lock()
		if st.holder != nil {
			stats.HighScores++
		}
		st.mu.Unlock()
	}
	return stats
}
