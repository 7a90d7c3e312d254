package mir

// SimplifyCFG performs control flow graph simplification on a function.
// Transformations:
// 1. Remove trivial goto blocks (0 instructions + goto terminator)
// 2. Merge a block into its predecessor when it is the only successor
// 3. Remove unreachable blocks
// 4. Renumber blocks deterministically
func SimplifyCFG(f *Func) {
	if f == nil || len(f.Blocks) == 0 {
		return
	}

	// Phase 1: Build redirect map for trivial goto blocks
	redirects := buildRedirectMap(f)

	// Phase 2: Apply redirects to all terminators
	applyRedirects(f, redirects)

	// Phase 3: Fold straight-line goto chains
	mergeLinearBlocks(f)

	// Phase 4: Compute reachability and remove dead blocks
	reachable := computeReachability(f)

	// Phase 5: Compact and renumber blocks
	compactBlocks(f, reachable)
}

// SimplifyModule simplifies every function of m.
func SimplifyModule(m *Module) {
	if m == nil {
		return
	}
	for _, f := range m.Funcs {
		SimplifyCFG(f)
	}
}

// buildRedirectMap finds all trivial goto blocks and builds a mapping
// from their IDs to their final targets (following chains).
func buildRedirectMap(f *Func) map[BlockID]BlockID {
	redirects := make(map[BlockID]BlockID)

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		// The entry holds the scope open and is never a trivial goto.
		if bb.ID == f.Entry || len(bb.Instrs) != 0 || bb.Term.Kind != TermGoto {
			continue
		}
		target := bb.Term.Goto.Target
		// Follow chain to final target
		visited := map[BlockID]bool{bb.ID: true}
		for !visited[target] {
			visited[target] = true

			if next, ok := redirects[target]; ok {
				target = next
				continue
			}
			if isTrivialGotoBlock(f, target) {
				target = f.Blocks[target].Term.Goto.Target
				continue
			}
			break
		}
		redirects[bb.ID] = target
	}
	return redirects
}

// isTrivialGotoBlock checks if a block is a trivial goto block
// (0 instructions and a goto terminator).
func isTrivialGotoBlock(f *Func, id BlockID) bool {
	if id < 0 || int(id) >= len(f.Blocks) || id == f.Entry {
		return false
	}
	bb := &f.Blocks[id]
	return len(bb.Instrs) == 0 && bb.Term.Kind == TermGoto
}

// applyRedirects updates all terminators to use the redirected targets.
func applyRedirects(f *Func, redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}
	redirect := func(id BlockID) BlockID {
		if newID, ok := redirects[id]; ok {
			return newID
		}
		return id
	}
	for i := range f.Blocks {
		retarget(&f.Blocks[i].Term, redirect)
	}
}

func retarget(term *Terminator, mapID func(BlockID) BlockID) {
	switch term.Kind {
	case TermGoto:
		term.Goto.Target = mapID(term.Goto.Target)
	case TermIf:
		term.If.Then = mapID(term.If.Then)
		term.If.Else = mapID(term.If.Else)
	}
}

// mergeLinearBlocks appends a goto target to its predecessor when the
// predecessor is its only one.
func mergeLinearBlocks(f *Func) {
	reachable := computeReachability(f)
	preds := make([]int, len(f.Blocks))
	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		for _, succ := range f.Blocks[i].Term.Successors() {
			preds[succ]++
		}
	}
	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		bb := &f.Blocks[i]
		for bb.Term.Kind == TermGoto {
			target := bb.Term.Goto.Target
			if target == bb.ID || target == f.Entry || preds[target] != 1 {
				break
			}
			next := &f.Blocks[target]
			bb.Instrs = append(bb.Instrs, next.Instrs...)
			bb.Term = next.Term
			next.Instrs = nil
			next.Term = Terminator{Kind: TermUnreachable}
			preds[target] = 0
		}
	}
}

// computeReachability performs a DFS from the entry block to find
// all reachable blocks.
func computeReachability(f *Func) []bool {
	reachable := make([]bool, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			return
		}
		reachable[id] = true
		for _, succ := range f.Blocks[id].Term.Successors() {
			visit(succ)
		}
	}

	visit(f.Entry)
	return reachable
}

// compactBlocks removes unreachable blocks and renumbers the remaining ones.
func compactBlocks(f *Func, reachable []bool) {
	count := 0
	for _, r := range reachable {
		if r {
			count++
		}
	}

	if count == len(f.Blocks) {
		for i := range f.Blocks {
			f.Blocks[i].ID = mustID[BlockID](i)
		}
		return
	}

	oldToNew := make(map[BlockID]BlockID)
	newBlocks := make([]Block, 0, count)
	for i, keep := range reachable {
		if keep {
			oldToNew[mustID[BlockID](i)] = mustID[BlockID](len(newBlocks))
			newBlocks = append(newBlocks, f.Blocks[i])
		}
	}

	remap := func(id BlockID) BlockID {
		if newID, ok := oldToNew[id]; ok {
			return newID
		}
		return id
	}
	for i := range newBlocks {
		newBlocks[i].ID = mustID[BlockID](i)
		retarget(&newBlocks[i].Term, remap)
	}

	f.Blocks = newBlocks
	f.Entry = remap(f.Entry)
}
