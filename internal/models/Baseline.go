package models

// BaselineVersion is the current schema version of the persisted record.
const BaselineVersion = 1

// Baseline is the durable per-identity record mapping every follower ever
// seen to the Unix timestamp (seconds) it was first observed. Entries are
// additive only: an unfollow never removes one.
type Baseline struct {
	Version     int              `json:"version"`
	Created     int64            `json:"created"`
	LastUpdated int64            `json:"lastUpdated"`
	Followers   map[string]int64 `json:"followers"`
}

// NewBaseline builds a fresh baseline from the observed follower set.
// Every initial entry is back-dated by backdate seconds so followers that
// existed before the first sync are never reported as new.
func NewBaseline(observed []string, now int64, backdate int64) *Baseline {
	followers := make(map[string]int64, len(observed))
	for _, id := range observed {
		followers[id] = now - backdate
	}
	return &Baseline{
		Version:     BaselineVersion,
		Created:     now,
		LastUpdated: now,
		Followers:   followers,
	}
}

// Merge adds every absent identity with firstSeen=now and returns the number
// of entries added. Existing entries keep their original firstSeen.
func (b *Baseline) Merge(ids []string, now int64) int {
	added := 0
	for _, id := range ids {
		if _, ok := b.Followers[id]; ok {
			continue
		}
		b.Followers[id] = now
		added++
	}
	if added > 0 {
		b.LastUpdated = now
	}
	return added
}

func (b *Baseline) Contains(id string) bool {
	_, ok := b.Followers[id]
	return ok
}

func (b *Baseline) Len() int {
	return len(b.Followers)
}

// Clone returns a deep copy so callers can hand baselines across goroutines
// without sharing the followers map.
func (b *Baseline) Clone() *Baseline {
	if b == nil {
		return nil
	}
	followers := make(map[string]int64, len(b.Followers))
	for k, v := range b.Followers {
		followers[k] = v
	}
	return &Baseline{
		Version:     b.Version,
		Created:     b.Created,
		LastUpdated: b.LastUpdated,
		Followers:   followers,
	}
}
