package state

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Persister durably stores one slice of the state tree. Implementations live
// in internal/repositories; the store only cares that failures are returned,
// logged, and swallowed.
type Persister interface {
	SaveSlice(path string, value any) error
	LoadSlice(path string) (any, bool, error)
}

// Subscriber receives the current value of its path after any store update.
// Listeners are path-filtered by re-reading their own slice, not by diffing:
// a subscriber fires on every update, even ones that did not touch its path.
type Subscriber func(value any)

type subscription struct {
	id   int
	path string
	fn   Subscriber
}

// Store is the path-addressable state container.
type Store struct {
	mu      sync.Mutex
	root    map[string]any
	subs    []subscription
	nextID  int
	persist Persister
	durable []string
	logger  *log.Logger
}

// New creates a Store over the given initial tree. durablePaths lists the
// slices persisted after every update; persist may be nil to disable
// persistence entirely (tests, ephemeral sessions).
func New(initial map[string]any, persist Persister, durablePaths []string, logger *log.Logger) *Store {
	if initial == nil {
		initial = map[string]any{}
	}
	return &Store{
		root:    initial,
		persist: persist,
		durable: durablePaths,
		logger:  logger,
	}
}

// Get returns the current value at a dot-addressed path, or nil when any
// segment is missing.
func (s *Store) Get(path string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(path)
}

func (s *Store) getLocked(path string) any {
	var cur any = s.root
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Update replaces the value at path with fn(currentValue), copying every
// ancestor map on the path, then notifies all subscribers and persists the
// durable subset.
func (s *Store) Update(path string, fn func(current any) any) {
	s.mu.Lock()

	keys := strings.Split(path, ".")
	newRoot := copyMap(s.root)
	cur := newRoot
	for _, key := range keys[:len(keys)-1] {
		child, _ := cur[key].(map[string]any)
		copied := copyMap(child)
		cur[key] = copied
		cur = copied
	}
	last := keys[len(keys)-1]
	cur[last] = fn(cur[last])
	s.root = newRoot

	subs := append([]subscription(nil), s.subs...)
	values := make([]any, len(subs))
	for i, sub := range subs {
		values[i] = s.getLocked(sub.path)
	}
	durable := make(map[string]any, len(s.durable))
	for _, p := range s.durable {
		durable[p] = s.getLocked(p)
	}
	s.mu.Unlock()

	for i, sub := range subs {
		s.notify(sub, values[i])
	}
	s.save(durable)
}

func (s *Store) notify(sub subscription, value any) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("state listener failed", "path", sub.path, "error", r)
		}
	}()
	sub.fn(value)
}

func (s *Store) save(durable map[string]any) {
	if s.persist == nil {
		return
	}
	for path, value := range durable {
		if err := s.persist.SaveSlice(path, value); err != nil && s.logger != nil {
			s.logger.Error("failed to persist state slice", "path", path, "error", err)
		}
	}
}

// Subscribe registers a callback invoked with the value at path after every
// update. Returns an unsubscribe function.
func (s *Store) Subscribe(path string, fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, path: path, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Restore loads every durable slice from the persister into the tree without
// notifying subscribers. Called once at session start, before collaborators
// subscribe. Missing or unreadable slices keep their defaults.
func (s *Store) Restore() {
	if s.persist == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range s.durable {
		value, ok, err := s.persist.LoadSlice(path)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("failed to load state slice", "path", path, "error", err)
			}
			continue
		}
		if !ok {
			continue
		}
		s.setLocked(path, value)
	}
}

func (s *Store) setLocked(path string, value any) {
	keys := strings.Split(path, ".")
	cur := s.root
	for _, key := range keys[:len(keys)-1] {
		child, ok := cur[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			cur[key] = child
		}
		cur = child
	}
	cur[keys[len(keys)-1]] = value
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
