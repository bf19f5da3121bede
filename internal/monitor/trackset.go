package monitor

// trackSet remembers recently processed track ids with a bounded footprint.
// When the cap is reached the oldest entry is evicted, so a very long
// session cannot grow the set without limit.
type trackSet struct {
	cap     int
	members map[string]struct{}
	order   []string
	head    int
}

func newTrackSet(capacity int) *trackSet {
	if capacity < 1 {
		capacity = 1
	}
	return &trackSet{
		cap:     capacity,
		members: make(map[string]struct{}, capacity),
		order:   make([]string, capacity),
	}
}

func (s *trackSet) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

func (s *trackSet) Add(id string) {
	if s.Contains(id) {
		return
	}
	if len(s.members) == s.cap {
		oldest := s.order[s.head]
		delete(s.members, oldest)
	}
	s.order[s.head] = id
	s.head = (s.head + 1) % s.cap
	s.members[id] = struct{}{}
}

func (s *trackSet) Len() int {
	return len(s.members)
}
