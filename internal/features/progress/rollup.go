package progress

import (
	"github.com/google/uuid"

	"github.com/mo-amir99/lms-progress-go/internal/features/catalog"
)

// WatchedThreshold is the percentage at which a video or course counts as complete.
const WatchedThreshold = 90.0

// IsWatched reports whether a progress value reaches the threshold.
func IsWatched(progress float64) bool {
	return progress >= WatchedThreshold
}

// SectionPercent is watched/total*100, or 0 for a section without videos.
func SectionPercent(watched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(watched) / float64(total) * 100
}

// OverallPercent is the unweighted mean of section percentages, or 0 with no sections.
// Every section weighs the same regardless of how many videos it holds.
func OverallPercent(sections []SectionProgress) float64 {
	if len(sections) == 0 {
		return 0
	}

	var sum float64
	for _, section := range sections {
		sum += section.Progress
	}
	return sum / float64(len(sections))
}

// rollupSections computes per-section progress from the outline and the set of watched videos.
func rollupSections(outline []catalog.SectionOutline, watched map[uuid.UUID]bool) []SectionProgress {
	sections := make([]SectionProgress, 0, len(outline))
	for _, section := range outline {
		count := 0
		for _, videoID := range section.VideoIDs {
			if watched[videoID] {
				count++
			}
		}
		sections = append(sections, SectionProgress{
			SectionID:     section.SectionID,
			Title:         section.Title,
			Progress:      SectionPercent(count, len(section.VideoIDs)),
			WatchedVideos: count,
			TotalVideos:   len(section.VideoIDs),
		})
	}
	return sections
}
