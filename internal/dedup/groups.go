package dedup

import "jobmate/ingestion-service/internal/model"

// GroupSet merges duplicate decisions into one DuplicateGroup per kept ID,
// in order of first appearance. A merged group reports the lowest score seen
// and is exact_signature only if every removal was.
type GroupSet struct {
	order  []string
	byKept map[string]*model.DuplicateGroup
}

func NewGroupSet() *GroupSet {
	return &GroupSet{byKept: make(map[string]*model.DuplicateGroup)}
}

// Add merges d. Accepted decisions are ignored.
func (gs *GroupSet) Add(d Decision) {
	if g, ok := d.Group(); ok {
		gs.AddGroup(g)
	}
}

// AddGroup merges an already built group.
func (gs *GroupSet) AddGroup(g model.DuplicateGroup) {
	g.RemovedIDs = append([]string(nil), g.RemovedIDs...)
	cur, exists := gs.byKept[g.KeptID]
	if !exists {
		gs.order = append(gs.order, g.KeptID)
		gs.byKept[g.KeptID] = &g
		return
	}
	cur.RemovedIDs = append(cur.RemovedIDs, g.RemovedIDs...)
	if g.Score < cur.Score {
		cur.Score = g.Score
	}
	if g.Reason == model.ReasonHighSimilarity {
		cur.Reason = model.ReasonHighSimilarity
	}
}

// Len is the number of groups.
func (gs *GroupSet) Len() int { return len(gs.order) }

// List returns the merged groups.
func (gs *GroupSet) List() []model.DuplicateGroup {
	out := make([]model.DuplicateGroup, 0, len(gs.order))
	for _, id := range gs.order {
		out = append(out, *gs.byKept[id])
	}
	return out
}
