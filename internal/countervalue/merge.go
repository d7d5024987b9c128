package countervalue

// mergePatches folds patches into data, which must already be a copy owned by
// the caller. A touched pair gets a fresh map: the previous RateMap value is
// never written to. It returns the touched pair ids in first-touch order.
func mergePatches(data map[string]RateMap, patches []Patch) []string {
	var touched []string
	seen := make(map[string]bool)

	for _, patch := range patches {
		for key, rates := range patch {
			if !seen[key] {
				seen[key] = true
				touched = append(touched, key)
				data[key] = cloneMap(data[key])
			}
			m := data[key]
			for k, v := range rates {
				m[k] = v
			}
		}
	}
	return touched
}
