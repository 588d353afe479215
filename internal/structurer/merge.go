// Package structurer implements spec.md §4.4: turning per-language
// NormalizedRecords, grouped by humId and sorted by version, into the
// bilingual Research / ResearchVersion / Dataset documents the search
// index serves.
package structurer

// pairLists implements the spec's §4.4.3 "matching pass": pair ja[i] with
// en[i] by position when the two lists are the same length; otherwise pair
// by a caller-supplied identity key, falling back to unmatched "ja-only"/
// "en-only" entries in original order. identity must return a stable,
// comparable key for one element; an empty key means "never match this
// element by identity".
func pairLists[T any](ja, en []T, identity func(T) string) []pair[T] {
	if len(ja) == len(en) {
		out := make([]pair[T], len(ja))
		for i := range ja {
			out[i] = pair[T]{JA: &ja[i], EN: &en[i]}
		}
		return out
	}

	enByKey := make(map[string]int, len(en))
	enUsed := make([]bool, len(en))
	for i := range en {
		key := identity(en[i])
		if key == "" {
			continue
		}
		if _, exists := enByKey[key]; !exists {
			enByKey[key] = i
		}
	}

	var out []pair[T]
	jaUsed := make([]bool, len(ja))
	for i := range ja {
		key := identity(ja[i])
		if key == "" {
			continue
		}
		if j, ok := enByKey[key]; ok && !enUsed[j] {
			out = append(out, pair[T]{JA: &ja[i], EN: &en[j]})
			jaUsed[i] = true
			enUsed[j] = true
		}
	}
	for i := range ja {
		if !jaUsed[i] {
			out = append(out, pair[T]{JA: &ja[i]})
		}
	}
	for j := range en {
		if !enUsed[j] {
			out = append(out, pair[T]{EN: &en[j]})
		}
	}
	return out
}

// pair is one matched (or half-matched) ja/en element.
type pair[T any] struct {
	JA *T
	EN *T
}
