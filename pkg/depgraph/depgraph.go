// Package depgraph orders nodes of a dependency graph.
package depgraph

import "sort"

// Edge says From must be processed before To.
type Edge struct {
	From string
	To   string
}

// Order returns every node exactly once, topologically sorted with Kahn's
// algorithm. Edges that mention nodes outside the set and self-edges are
// ignored. Nodes left over because they sit on a cycle are appended after
// the acyclic prefix, so the result never drops a node.
//
// Ties are broken by the input order of nodes, which keeps the output stable.
func Order(nodes []string, edges []Edge) []string {
	index := make(map[string]int, len(nodes))
	unique := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := index[n]; ok {
			continue
		}
		index[n] = len(unique)
		unique = append(unique, n)
	}

	inDegree := make(map[string]int, len(unique))
	adjacent := make(map[string][]string, len(unique))
	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if e.From == e.To || seen[e] {
			continue
		}
		if _, ok := index[e.From]; !ok {
			continue
		}
		if _, ok := index[e.To]; !ok {
			continue
		}
		seen[e] = true
		adjacent[e.From] = append(adjacent[e.From], e.To)
		inDegree[e.To]++
	}

	var queue []string
	for _, n := range unique {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	ordered := make([]string, 0, len(unique))
	done := make(map[string]bool, len(unique))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		ordered = append(ordered, n)
		done[n] = true

		next := adjacent[n]
		sort.SliceStable(next, func(i, j int) bool { return index[next[i]] < index[next[j]] })
		for _, m := range next {
			inDegree[m]--
			if inDegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	for _, n := range unique {
		if !done[n] {
			ordered = append(ordered, n)
		}
	}
	return ordered
}

// HasCycle reports whether Order had to fall back for any node.
func HasCycle(nodes []string, edges []Edge) bool {
	ordered := Order(nodes, edges)
	pos := make(map[string]int, len(ordered))
	for i, n := range ordered {
		pos[n] = i
	}
	for _, e := range edges {
		from, okFrom := pos[e.From]
		to, okTo := pos[e.To]
		if okFrom && okTo && e.From != e.To && from > to {
			return true
		}
	}
	return false
}
