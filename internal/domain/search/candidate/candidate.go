// Package candidate holds the intermediate candidate sets produced by the
// query pipeline stages.
//
// A Set is either Unrestricted (the stage had no filters and selects the
// whole corpus) or an explicit, ordered id set. Unrestricted is the identity
// element of Intersect; an explicit empty set is its zero.
package candidate

import "sort"

// Hit is a single scored match from the text search backend.
type Hit struct {
	ID    int64
	Score float64
}

// Candidate is one entry of a materialized set.
type Candidate struct {
	ID        int64
	Score     float64
	LinkCount int
	// HasLinkCount reports whether a graph stage attached LinkCount.
	HasLinkCount bool
}

// Set is an ordered candidate set or the unrestricted sentinel.
type Set struct {
	restricted bool
	ids        []int64
	members    map[int64]struct{}
	scores     map[int64]float64
	linkCounts map[int64]int
}

// Unrestricted returns the sentinel that selects every article.
func Unrestricted() Set { return Set{} }

// Empty returns a restricted set with no members.
func Empty() Set { return FromIDs(nil) }

// FromIDs builds a restricted set in the given order. Duplicates keep their first position.
func FromIDs(ids []int64) Set {
	s := Set{
		restricted: true,
		ids:        make([]int64, 0, len(ids)),
		members:    make(map[int64]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, ok := s.members[id]; ok {
			continue
		}
		s.members[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// FromSortedIDs builds a restricted set ordered by ascending id.
func FromSortedIDs(ids []int64) Set {
	s := FromIDs(ids)
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	return s
}

// FromHits builds a restricted set ordered by descending score, ties by ascending id.
// A repeated id keeps its highest score.
func FromHits(hits []Hit) Set {
	best := make(map[int64]float64, len(hits))
	for _, h := range hits {
		if cur, ok := best[h.ID]; !ok || h.Score > cur {
			best[h.ID] = h.Score
		}
	}
	return fromScores(best)
}

func fromScores(scores map[int64]float64) Set {
	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := scores[ids[i]], scores[ids[j]]
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
	s := FromIDs(ids)
	s.scores = scores
	return s
}

// IntersectScored intersects restricted scored sets and sums their scores.
// The result is ordered by summed score, ties by ascending id.
func IntersectScored(sets ...Set) Set {
	if len(sets) == 0 {
		return Unrestricted()
	}
	acc := Unrestricted()
	for _, s := range sets {
		acc = acc.Intersect(s)
	}
	if !acc.restricted {
		return acc
	}
	sums := make(map[int64]float64, len(acc.ids))
	for _, id := range acc.ids {
		var total float64
		for _, s := range sets {
			total += s.scores[id]
		}
		sums[id] = total
	}
	return fromScores(sums)
}

// WithLinkCounts returns a copy of s carrying per-candidate link counts.
func (s Set) WithLinkCounts(counts map[int64]int) Set {
	if !s.restricted {
		return s
	}
	out := s
	out.linkCounts = make(map[int64]int, len(s.ids))
	for _, id := range s.ids {
		if c, ok := counts[id]; ok {
			out.linkCounts[id] = c
		}
	}
	return out
}

// IsUnrestricted reports whether s is the unrestricted sentinel.
func (s Set) IsUnrestricted() bool { return !s.restricted }

// Len returns the number of members. It is 0 for the sentinel; check IsUnrestricted first.
func (s Set) Len() int { return len(s.ids) }

// IDs returns the members in set order (nil for the sentinel).
func (s Set) IDs() []int64 { return s.ids }

// Contains reports membership. The sentinel contains every id.
func (s Set) Contains(id int64) bool {
	if !s.restricted {
		return true
	}
	_, ok := s.members[id]
	return ok
}

// Score returns the relevance score attached to id.
func (s Set) Score(id int64) (float64, bool) {
	v, ok := s.scores[id]
	return v, ok
}

// LinkCount returns the link count attached to id.
func (s Set) LinkCount(id int64) (int, bool) {
	v, ok := s.linkCounts[id]
	return v, ok
}

// Intersect keeps the members of s that are also in o, in s's order.
// Scores and link counts from both sides are carried over, s taking precedence.
func (s Set) Intersect(o Set) Set {
	if !o.restricted {
		return s
	}
	if !s.restricted {
		return o
	}
	out := Set{
		restricted: true,
		ids:        make([]int64, 0, min(len(s.ids), len(o.ids))),
		members:    make(map[int64]struct{}, min(len(s.ids), len(o.ids))),
	}
	for _, id := range s.ids {
		if _, ok := o.members[id]; !ok {
			continue
		}
		out.ids = append(out.ids, id)
		out.members[id] = struct{}{}
		if v, ok := s.scores[id]; ok {
			out.setScore(id, v)
		} else if v, ok := o.scores[id]; ok {
			out.setScore(id, v)
		}
		if v, ok := s.linkCounts[id]; ok {
			out.setLinkCount(id, v)
		} else if v, ok := o.linkCounts[id]; ok {
			out.setLinkCount(id, v)
		}
	}
	return out
}

// SortedByID returns a copy of s ordered by ascending id.
func (s Set) SortedByID() Set {
	if !s.restricted {
		return s
	}
	out := s
	out.ids = make([]int64, len(s.ids))
	copy(out.ids, s.ids)
	sort.Slice(out.ids, func(i, j int) bool { return out.ids[i] < out.ids[j] })
	return out
}

// Candidates materializes s in set order.
func (s Set) Candidates() []Candidate {
	out := make([]Candidate, len(s.ids))
	for i, id := range s.ids {
		c := Candidate{ID: id, Score: s.scores[id]}
		if lc, ok := s.linkCounts[id]; ok {
			c.LinkCount = lc
			c.HasLinkCount = true
		}
		out[i] = c
	}
	return out
}

func (s *Set) setScore(id int64, v float64) {
	if s.scores == nil {
		s.scores = make(map[int64]float64)
	}
	s.scores[id] = v
}

func (s *Set) setLinkCount(id int64, v int) {
	if s.linkCounts == nil {
		s.linkCounts = make(map[int64]int)
	}
	s.linkCounts[id] = v
}
