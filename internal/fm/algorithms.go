package fm

// algorithm is one operator routing topology. Operators are zero-based
// (0 = OP1). In every DX7 algorithm a modulator has a higher number than the
// operators it feeds, so evaluating OP6 down to OP1 respects the graph.
type algorithm struct {
	mods     [numOps]uint8 // bitmask of operators modulating each operator
	carriers uint8
	feedback int
}

type link struct{ from, to int }

func alg(feedback int, carriers []int, links ...link) algorithm {
	a := algorithm{feedback: feedback - 1}
	for _, c := range carriers {
		a.carriers |= 1 << (c - 1)
	}
	for _, l := range links {
		a.mods[l.to-1] |= 1 << (l.from - 1)
	}
	return a
}

var algorithms = [32]algorithm{
	alg(6, []int{1, 3}, link{2, 1}, link{6, 5}, link{5, 4}, link{4, 3}),
	alg(2, []int{1, 3}, link{2, 1}, link{6, 5}, link{5, 4}, link{4, 3}),
	alg(6, []int{1, 4}, link{3, 2}, link{2, 1}, link{6, 5}, link{5, 4}),
	alg(6, []int{1, 4}, link{3, 2}, link{2, 1}, link{6, 5}, link{5, 4}),
	alg(6, []int{1, 3, 5}, link{2, 1}, link{4, 3}, link{6, 5}),
	alg(6, []int{1, 3, 5}, link{2, 1}, link{4, 3}, link{6, 5}),
	alg(6, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 3}, link{6, 5}),
	alg(4, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 3}, link{6, 5}),
	alg(2, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 3}, link{6, 5}),
	alg(3, []int{1, 4}, link{3, 2}, link{2, 1}, link{5, 4}, link{6, 4}),
	alg(6, []int{1, 4}, link{3, 2}, link{2, 1}, link{5, 4}, link{6, 4}),
	alg(2, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 3}, link{6, 3}),
	alg(6, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 3}, link{6, 3}),
	alg(6, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 4}, link{6, 4}),
	alg(2, []int{1, 3}, link{2, 1}, link{4, 3}, link{5, 4}, link{6, 4}),
	alg(6, []int{1}, link{2, 1}, link{3, 1}, link{4, 3}, link{5, 1}, link{6, 5}),
	alg(2, []int{1}, link{2, 1}, link{3, 1}, link{4, 3}, link{5, 1}, link{6, 5}),
	alg(3, []int{1}, link{2, 1}, link{3, 1}, link{4, 1}, link{5, 4}, link{6, 5}),
	alg(6, []int{1, 4, 5}, link{3, 2}, link{2, 1}, link{6, 4}, link{6, 5}),
	alg(3, []int{1, 2, 4}, link{3, 1}, link{3, 2}, link{5, 4}, link{6, 4}),
	alg(3, []int{1, 2, 4, 5}, link{3, 1}, link{3, 2}, link{6, 4}, link{6, 5}),
	alg(6, []int{1, 3, 4, 5}, link{2, 1}, link{6, 3}, link{6, 4}, link{6, 5}),
	alg(6, []int{1, 2, 4, 5}, link{3, 2}, link{6, 4}, link{6, 5}),
	alg(6, []int{1, 2, 3, 4, 5}, link{6, 3}, link{6, 4}, link{6, 5}),
	alg(6, []int{1, 2, 3, 4, 5}, link{6, 4}, link{6, 5}),
	alg(6, []int{1, 2, 4}, link{3, 2}, link{5, 4}, link{6, 4}),
	alg(3, []int{1, 2, 4}, link{3, 2}, link{5, 4}, link{6, 4}),
	alg(5, []int{1, 3, 6}, link{2, 1}, link{4, 3}, link{5, 4}),
	alg(6, []int{1, 2, 3, 5}, link{4, 3}, link{6, 5}),
	alg(5, []int{1, 2, 3, 6}, link{4, 3}, link{5, 4}),
	alg(6, []int{1, 2, 3, 4, 5}, link{6, 5}),
	alg(6, []int{1, 2, 3, 4, 5, 6}),
}
