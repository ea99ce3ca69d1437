package feed

// ToggleMember returns a new liker set with uid removed when present and
// appended otherwise, plus whether uid was present. ids is never modified.
func ToggleMember(ids []string, uid string) (next []string, was bool) {
	next = make([]string, 0, len(ids)+1)
	for _, id := range ids {
		if id == uid {
			was = true
			continue
		}
		next = append(next, id)
	}
	if !was {
		next = append(next, uid)
	}
	return next, was
}
