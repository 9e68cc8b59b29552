package purge

// SeenSet remembers message IDs already forwarded to the deleter in this run.
// It is owned by the lister and is not safe for concurrent use.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet creates an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Seen reports whether id was marked before.
func (s *SeenSet) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// MarkSeen records id.
func (s *SeenSet) MarkSeen(id string) {
	s.ids[id] = struct{}{}
}

// Len returns the number of recorded IDs.
func (s *SeenSet) Len() int {
	return len(s.ids)
}
