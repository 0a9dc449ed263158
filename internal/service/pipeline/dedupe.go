package pipeline

import "github.com/octobees/mapleads/internal/geoapify"

// Dedupe keeps the first feature seen for each place id and drops features
// without one. Running it on its own output is a no-op.
func Dedupe(features []geoapify.Feature) []geoapify.Feature {
	seen := make(map[string]struct{}, len(features))
	out := make([]geoapify.Feature, 0, len(features))
	for _, f := range features {
		id := f.ID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, f)
	}
	return out
}
