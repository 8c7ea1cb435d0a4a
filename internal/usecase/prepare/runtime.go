package prepare

import (
	"github.com/akhmerov/prereview/internal/domain"
)

// BuildRuntime assembles the in-memory runtime view from parsed files. The
// anchor index maps every file path to its anchors with current new-side
// positions.
func BuildRuntime(rawDiff string, files []domain.FileDiff) *domain.Runtime {
	runtime := &domain.Runtime{
		Fingerprint: domain.FingerprintDiff(rawDiff),
		Stats:       computeStats(files),
		Files:       files,
		AnchorIndex: make(map[string]map[string]domain.AnchorRef, len(files)),
	}

	for _, file := range files {
		refs := make(map[string]domain.AnchorRef, len(file.Hunks))
		for _, hunk := range file.Hunks {
			end := hunk.NewStart
			if hunk.NewCount > 0 {
				end = hunk.NewStart + hunk.NewCount - 1
			}
			ref := domain.AnchorRef{
				AnchorID:     hunk.AnchorID,
				HunkID:       hunk.ID,
				StableHunkID: hunk.StableID,
				NewStart:     hunk.NewStart,
				NewEnd:       end,
			}
			for _, line := range hunk.Lines {
				if line.Kind == domain.LineAdded && line.NewLine != nil {
					ref.AnchorLine = domain.IntPtr(*line.NewLine)
					break
				}
			}
			refs[hunk.AnchorID] = ref
		}
		runtime.AnchorIndex[file.Path()] = refs
	}

	return runtime
}
