// Package ranking derives leaderboard positions from season scores.
package ranking

import "sort"

type Score struct {
	UserID      uint64
	SeasonID    uint64
	TotalPoints int64
}

type Entry struct {
	UserID      uint64 `json:"user_id"`
	SeasonID    uint64 `json:"season_id"`
	TotalPoints int64  `json:"total_points"`
	Rank        int    `json:"rank"`
}

// Rank orders scores by points descending and assigns standard competition
// ranks ("1224"): ties share a rank, the next group starts at its position.
// Ties are listed by ascending user id so the output is stable.
func Rank(scores []Score) []Entry {
	if len(scores) == 0 {
		return []Entry{}
	}
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalPoints != sorted[j].TotalPoints {
			return sorted[i].TotalPoints > sorted[j].TotalPoints
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	out := make([]Entry, 0, len(sorted))
	rank := 0
	for i, s := range sorted {
		if i == 0 || s.TotalPoints != sorted[i-1].TotalPoints {
			rank = i + 1
		}
		out = append(out, Entry{
			UserID:      s.UserID,
			SeasonID:    s.SeasonID,
			TotalPoints: s.TotalPoints,
			Rank:        rank,
		})
	}
	return out
}

// Find returns the entry for userID, if ranked.
func Find(entries []Entry, userID uint64) (Entry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return Entry{}, false
}
