package redis

import (
	"sort"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// SMembers returns keys in arbitrary order; snapshots need a stable one

func sortChallenges(challenges []*model.Challenge) {
	sort.Slice(challenges, func(i, j int) bool {
		if challenges[i].CreatedAt.Equal(challenges[j].CreatedAt) {
			return challenges[i].ID < challenges[j].ID
		}
		return challenges[i].CreatedAt.Before(challenges[j].CreatedAt)
	})
}

func sortMatches(matches []*model.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
}
