// Package ranking orders catalog entries by relevance to a search query.
//
// Every searchable field of an entry is scored independently with a fuzzy
// subsequence match (sahilm/fuzzy) and normalized into (0, 1]. The combined
// score is the best field score plus a flat bonus for each field group whose
// score clears that group's threshold, so a strong name match always beats a
// strong tag-only match:
//
//	name        > 0.4  +100
//	description > 0.6  +50
//	author      > 0.6  +20
//	tags / url  > 0.7  +10
//
// Entries that match no field are excluded. Equal scores keep their input
// order. Ranking never mutates entries and performs no I/O, so it is safe to
// call on every keystroke against an immutable snapshot.
package ranking
