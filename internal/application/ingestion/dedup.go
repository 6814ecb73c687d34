package ingestion

import (
	"fmt"
	"sort"
)

// markDuplicates devuelve, para cada fila que repite una clave natural ya vista en el lote,
// el número de fila de la primera aparición. La primera aparición es la canónica.
func markDuplicates(rows []Row) map[Row]int {
	first := make(map[string]int)
	dups := make(map[Row]int)
	for _, row := range rows {
		h := row.Header()
		if h.Key == "" {
			continue
		}
		if idx, seen := first[h.Key]; seen {
			dups[row] = idx
			continue
		}
		first[h.Key] = h.Index
	}
	return dups
}

func duplicateIssue(firstRow int) Issue {
	return Issue{Code: CodeDuplicateInBatch, Message: fmt.Sprintf("la clave ya aparece en la fila %d", firstRow)}
}

// orderByParent ordena las resoluciones para que cada padre del lote preceda a sus hijas,
// conservando el orden de la hoja entre filas independientes. Las filas en ciclo se devuelven
// aparte.
func orderByParent(rows []*ResolutionRow) (ordered, cyclic []*ResolutionRow) {
	byKey := make(map[string]*ResolutionRow, len(rows))
	for _, r := range rows {
		byKey[r.Number] = r
	}
	indegree := make(map[*ResolutionRow]int, len(rows))
	children := make(map[*ResolutionRow][]*ResolutionRow)
	for _, r := range rows {
		if r.ParentNumber == nil {
			continue
		}
		if parent, ok := byKey[*r.ParentNumber]; ok {
			indegree[r]++
			children[parent] = append(children[parent], r)
		}
	}

	var ready []*ResolutionRow
	for _, r := range rows {
		if indegree[r] == 0 {
			ready = append(ready, r)
		}
	}
	done := make(map[*ResolutionRow]bool, len(rows))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return ready[i].Index < ready[j].Index })
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		done[next] = true
		for _, child := range children[next] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	for _, r := range rows {
		if !done[r] {
			cyclic = append(cyclic, r)
		}
	}
	return ordered, cyclic
}
