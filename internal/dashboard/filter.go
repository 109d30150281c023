package dashboard

// Selection is the one reusable multi-select filter: a set of selected
// entity keys. An empty selection means "everything", matching how the
// campaign and keyword dropdowns behave.
type Selection map[string]struct{}

func NewSelection(keys ...string) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Selection) With(key string) Selection {
	out := make(Selection, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[key] = struct{}{}
	return out
}

func (s Selection) Without(key string) Selection {
	out := make(Selection, len(s))
	for k := range s {
		if k != key {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s Selection) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Predicate returns the pure filter function the table and chart share.
func (s Selection) Predicate() func(entityKey string) bool {
	if len(s) == 0 {
		return func(string) bool { return true }
	}
	return func(key string) bool { return s.Has(key) }
}
