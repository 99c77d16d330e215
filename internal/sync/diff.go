package sync

// DiffAgainst returns the identifiers of snapshotIDs that are absent from
// seen. The result follows snapshot order and holds each identifier once.
// It is always a subset of snapshotIDs, and diffing a snapshot against its
// own identifiers yields an empty result.
func DiffAgainst(snapshotIDs, seen []string) []string {
	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}
	return diffAgainstSet(snapshotIDs, seenSet)
}

func diffAgainstSet(snapshotIDs []string, seen map[string]struct{}) []string {
	newIDs := make([]string, 0)
	emitted := make(map[string]struct{})
	for _, id := range snapshotIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		if _, ok := emitted[id]; ok {
			continue
		}
		emitted[id] = struct{}{}
		newIDs = append(newIDs, id)
	}
	return newIDs
}
