package client

import "sync"

// subscriptions is the client-local mapping type → set<handler>
// described in spec §4.5.
type subscriptions struct {
	mu     sync.Mutex
	nextID int
	byType map[string]map[int]Handler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string]map[int]Handler)}
}

// add inserts h under eventType and returns an idempotent unsubscribe
// closure that removes the handler, and the type's set if it becomes
// empty.
func (s *subscriptions) add(eventType string, h Handler) func() {
	s.mu.Lock()
	set, ok := s.byType[eventType]
	if !ok {
		set = make(map[int]Handler)
		s.byType[eventType] = set
	}
	s.nextID++
	id := s.nextID
	set[id] = h
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.byType[eventType]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(s.byType, eventType)
				}
			}
		})
	}
}

// handlersFor returns a snapshot of the handlers registered for
// eventType.
func (s *subscriptions) handlersFor(eventType string) []Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byType[eventType]
	if !ok {
		return nil
	}
	out := make([]Handler, 0, len(set))
	for _, h := range set {
		out = append(out, h)
	}
	return out
}
