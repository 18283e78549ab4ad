package store

import "time"

// DisplayLocation resolves the timezone recorded on a log so its date reads
// naturally. Unknown names fall back to UTC. Bucketing never depends on it.
func DisplayLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
