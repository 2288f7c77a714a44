package recordmap

// Block returns the block id if it is present and alive. Tombstoned blocks
// are reported as absent.
func (rm RecordMap) Block(id string) (*Block, bool) {
	b, ok := Lookup[Block](rm, TableBlock, id)
	if !ok || !b.Alive {
		return nil, false
	}
	return b, true
}

// Children returns the alive children of id that are present in the map, in
// content order.
func (rm RecordMap) Children(id string) []*Block {
	parent, ok := rm.Block(id)
	if !ok {
		return nil
	}
	out := make([]*Block, 0, len(parent.Content))
	for _, childID := range parent.Content {
		if child, ok := rm.Block(childID); ok {
			out = append(out, child)
		}
	}
	return out
}

// MissingChildren returns the content ids of id that have no record at all,
// in content order. Tombstoned children are present and not reported.
func (rm RecordMap) MissingChildren(id string) []string {
	parent, ok := rm.Block(id)
	if !ok {
		return nil
	}
	var missing []string
	for _, childID := range parent.Content {
		if rec, ok := rm.Get(TableBlock, childID); !ok || rec.Empty() {
			missing = append(missing, childID)
		}
	}
	return missing
}

// CountAlive counts the alive blocks in the map.
func (rm RecordMap) CountAlive() int {
	n := 0
	for id := range rm[TableBlock] {
		if _, ok := rm.Block(id); ok {
			n++
		}
	}
	return n
}

// Walk visits the alive subtree rooted at id depth-first, in content order.
// fn returns false to skip the children of the block it was given. A block
// reachable twice is visited once.
func (rm RecordMap) Walk(id string, fn func(b *Block, depth int) bool) {
	seen := map[string]bool{}
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		b, ok := rm.Block(id)
		if !ok {
			return
		}
		if !fn(b, depth) {
			return
		}
		for _, childID := range b.Content {
			visit(childID, depth+1)
		}
	}
	visit(id, 0)
}
