package domain

// AnchorRef locates a context anchor inside the current working state of
// the diff. NewStart/NewEnd bound the hunk on the new side; AnchorLine is
// the first added line, nil when the hunk only removes.
type AnchorRef struct {
	AnchorID     string
	HunkID       string
	StableHunkID string
	NewStart     int
	NewEnd       int
	AnchorLine   *int
}

// Runtime is the recomputed, never-persisted view of a context's diff. It
// reflects the source as it is now, which may have drifted from the
// snapshot the context was built from.
type Runtime struct {
	Fingerprint string
	Stats       Stats
	Files       []FileDiff
	AnchorIndex map[string]map[string]AnchorRef
}

// LookupAnchor resolves an anchor id within a file path.
func (r *Runtime) LookupAnchor(path, anchorID string) (AnchorRef, bool) {
	anchors, ok := r.AnchorIndex[path]
	if !ok {
		return AnchorRef{}, false
	}
	ref, ok := anchors[anchorID]
	return ref, ok
}
