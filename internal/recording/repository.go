package recording

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Repository holds the authoritative in-memory set of scheduled recordings,
// one bounded queue per capture card. A single coarse mutex serializes every
// mutation and consistency-sensitive read; administrative traffic is rare
// enough that contention is a non-issue next to encoding cost. The lock is
// never held across anything that blocks.
type Repository struct {
	mu         sync.Mutex
	cards      [][]*Entry
	maxEntries int
	nextID     int64
}

// NewRepository creates a repository with the given number of card queues,
// each bounded to maxEntries scheduled recordings.
func NewRepository(cardCount, maxEntries int) (*Repository, error) {
	if cardCount <= 0 {
		return nil, fmt.Errorf("card count must be positive, got %d", cardCount)
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("max entries must be positive, got %d", maxEntries)
	}
	return &Repository{
		cards:      make([][]*Entry, cardCount),
		maxEntries: maxEntries,
		nextID:     1,
	}, nil
}

// CardCount returns the number of card queues.
func (r *Repository) CardCount() int {
	return len(r.cards)
}

// Insert places the entry on the first card whose queue has room and no
// overlapping interval, scanning from card 0 upward. The first fit wins; no
// load balancing is attempted. When every queue conflicts, ErrNoFreeCard is
// returned and nothing is mutated. The returned entry carries the assigned
// id and card.
func (r *Repository) Insert(entry Entry) (Entry, error) {
	if err := entry.Validate(); err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for card := range r.cards {
		if !r.fits(card, &entry) {
			continue
		}
		stored := entry.Clone()
		stored.Card = card
		if stored.ID == 0 {
			stored.ID = r.nextID
		}
		if stored.ID >= r.nextID {
			r.nextID = stored.ID + 1
		}
		if stored.State == "" {
			stored.State = StateScheduled
		}
		r.insertSorted(card, &stored)
		return stored.Clone(), nil
	}
	return Entry{}, ErrNoFreeCard
}

func (r *Repository) fits(card int, entry *Entry) bool {
	queue := r.cards[card]
	if len(queue) >= r.maxEntries {
		return false
	}
	for _, existing := range queue {
		if existing.Overlaps(entry) {
			return false
		}
	}
	return true
}

func (r *Repository) insertSorted(card int, entry *Entry) {
	queue := r.cards[card]
	idx := sort.Search(len(queue), func(i int) bool {
		return queue[i].Start.After(entry.Start)
	})
	queue = append(queue, nil)
	copy(queue[idx+1:], queue[idx:])
	queue[idx] = entry
	r.cards[card] = queue
}

// Delete removes the entry with the given id. With wholeSeries set, every
// entry sharing its recurrence id is removed across all queues. It returns
// the removed entries.
func (r *Repository) Delete(id int64, wholeSeries bool) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.findLocked(id)
	if target == nil {
		return nil, ErrNotFound
	}

	if !wholeSeries || target.RecurrenceID == "" {
		r.removeLocked(func(e *Entry) bool { return e.ID == id })
		return []Entry{target.Clone()}, nil
	}

	recurrenceID := target.RecurrenceID
	var removed []Entry
	for _, queue := range r.cards {
		for _, e := range queue {
			if e.RecurrenceID == recurrenceID {
				removed = append(removed, e.Clone())
			}
		}
	}
	r.removeLocked(func(e *Entry) bool { return e.RecurrenceID == recurrenceID })
	return removed, nil
}

func (r *Repository) findLocked(id int64) *Entry {
	for _, queue := range r.cards {
		for _, e := range queue {
			if e.ID == id {
				return e
			}
		}
	}
	return nil
}

func (r *Repository) removeLocked(match func(*Entry) bool) {
	for card, queue := range r.cards {
		kept := queue[:0]
		for _, e := range queue {
			if !match(e) {
				kept = append(kept, e)
			}
		}
		for i := len(kept); i < len(queue); i++ {
			queue[i] = nil
		}
		r.cards[card] = kept
	}
}

// Get returns a copy of the entry with the given id.
func (r *Repository) Get(id int64) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.findLocked(id)
	if e == nil {
		return Entry{}, ErrNotFound
	}
	return e.Clone(), nil
}

// List returns a snapshot of one card's queue, ordered by start time.
func (r *Repository) List(card int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if card < 0 || card >= len(r.cards) {
		return nil, fmt.Errorf("card %d out of range", card)
	}
	return cloneQueue(r.cards[card]), nil
}

// ListAll returns a snapshot of every queue, ordered by card then start time.
func (r *Repository) ListAll() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []Entry
	for _, queue := range r.cards {
		all = append(all, cloneQueue(queue)...)
	}
	return all
}

func cloneQueue(queue []*Entry) []Entry {
	out := make([]Entry, 0, len(queue))
	for _, e := range queue {
		out = append(out, e.Clone())
	}
	return out
}

// PromoteDue transitions scheduled entries whose start time has arrived to
// the capturing state and returns copies of them.
func (r *Repository) PromoteDue(now time.Time) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var promoted []Entry
	for _, queue := range r.cards {
		for _, e := range queue {
			if e.State != StateScheduled {
				continue
			}
			if e.Start.After(now) || !e.End.After(now) {
				continue
			}
			e.State = StateCapturing
			promoted = append(promoted, e.Clone())
		}
	}
	return promoted
}

// ReleaseFinished removes entries whose end time has passed. Entries that
// were capturing are returned as captured, ready for transcoding; scheduled
// entries whose whole window elapsed without capture are returned as expired.
func (r *Repository) ReleaseFinished(now time.Time) (captured, expired []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, queue := range r.cards {
		for _, e := range queue {
			if e.End.After(now) {
				continue
			}
			if e.State == StateCapturing {
				captured = append(captured, e.Clone())
			} else {
				expired = append(expired, e.Clone())
			}
		}
	}
	r.removeLocked(func(e *Entry) bool { return !e.End.After(now) })
	return captured, expired
}

// Clear removes every entry. Used when restoring a saved database.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for card := range r.cards {
		r.cards[card] = nil
	}
}
