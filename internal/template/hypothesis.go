// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package template

// cutPieces splits signal items at toggles. Empty pieces between toggles are
// kept so that odd indices stay optional; a trailing empty piece is dropped.
func cutPieces(items []Item) [][]Item {
	var (
		pieces [][]Item
		piece  []Item
	)
	for _, it := range items {
		if it.Kind == Toggle {
			pieces = append(pieces, piece)
			piece = nil
			continue
		}
		piece = append(piece, it)
	}
	if len(piece) > 0 {
		pieces = append(pieces, piece)
	}
	return pieces
}

func buildGroups(pieces [][]Item) []Group {
	k := len(pieces) / 2
	groups := make([]Group, 0, k+1)
	for n := k; n >= 0; n-- {
		g := Group{N: n}
		for _, kept := range combinations(k, n) {
			g.Hypotheses = append(g.Hypotheses, buildHypothesis(pieces, kept))
		}
		groups = append(groups, g)
	}
	return groups
}

// buildHypothesis takes every obligatory piece and the optional pieces listed
// in kept, splicing neighbours of equal variable-ness into one item.
func buildHypothesis(pieces [][]Item, kept []int) Section {
	include := make(map[int]bool, len(kept))
	for _, i := range kept {
		include[2*i+1] = true
	}

	var items []Item
	for p, piece := range pieces {
		if p%2 == 1 && !include[p] {
			continue
		}
		for _, it := range piece {
			if n := len(items); n > 0 && (items[n-1].Kind == Variable) == (it.Kind == Variable) {
				items[n-1] = splice(items[n-1], it)
				continue
			}
			items = append(items, it)
		}
	}
	return newHypothesis(items)
}

// combinations lists every choice of n indices out of 0..k-1, in the order
// obtained by dropping the latest indices first and walking the dropped set
// towards the front.
//
// For k=4, n=2 the kept sets are [0 1] [0 2] [1 2] [0 3] [1 3] [2 3].
func combinations(k, n int) [][]int {
	if n >= k {
		return [][]int{seq(0, k)}
	}
	left := seq(n, k)
	var out [][]int
	for {
		out = append(out, complement(left, k))
		if left[0] > 0 {
			left[0]--
			continue
		}
		moved := false
		for i := 1; i < len(left); i++ {
			if contains(left, left[i]-1) {
				continue
			}
			left[i]--
			for j := i - 1; j >= 0; j-- {
				left[j] = left[j+1] - 1
			}
			moved = true
			break
		}
		if !moved {
			return out
		}
	}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func complement(left []int, k int) []int {
	kept := make([]int, 0, k-len(left))
	for i := 0; i < k; i++ {
		if !contains(left, i) {
			kept = append(kept, i)
		}
	}
	return kept
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
