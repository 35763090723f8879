package core

// WatchSet is the set of cause-by tags a role reacts to.
type WatchSet map[string]struct{}

// NewWatchSet builds a watch set from tags.
func NewWatchSet(tags ...string) WatchSet {
	ws := make(WatchSet, len(tags))
	for _, tag := range tags {
		ws[tag] = struct{}{}
	}
	return ws
}

// Contains reports whether the tag is watched.
func (ws WatchSet) Contains(tag string) bool {
	_, ok := ws[tag]
	return ok
}

// Tags returns the watched tags in unspecified order.
func (ws WatchSet) Tags() []string {
	tags := make([]string, 0, len(ws))
	for tag := range ws {
		tags = append(tags, tag)
	}
	return tags
}
