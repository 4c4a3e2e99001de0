package game

import (
	"math/rand"
	"sort"

	"github.com/TomaTV/taquiz.fr/internal/models"
)

// AssemblePool merges every player's submitted questions into one pool and
// returns a uniformly random permutation of it. Submissions are merged in
// submission-time order (player id as tie-break) so the pre-shuffle pool is
// deterministic; the shuffle is an in-place Fisher-Yates driven by rng.
// A nil rng falls back to the shared math/rand source.
func AssemblePool(submissions map[string]models.QuestionSubmission, rng *rand.Rand) []string {
	playerIDs := make([]string, 0, len(submissions))
	for id := range submissions {
		playerIDs = append(playerIDs, id)
	}
	sort.Slice(playerIDs, func(i, j int) bool {
		a, b := submissions[playerIDs[i]], submissions[playerIDs[j]]
		if a.SubmittedAt != b.SubmittedAt {
			return a.SubmittedAt < b.SubmittedAt
		}
		return playerIDs[i] < playerIDs[j]
	})

	var pool []string
	for _, id := range playerIDs {
		pool = append(pool, submissions[id].Questions...)
	}

	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := len(pool) - 1; i > 0; i-- {
		j := intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool
}

// PoolSize counts every submitted question across all players.
func PoolSize(submissions map[string]models.QuestionSubmission) int {
	n := 0
	for _, s := range submissions {
		n += len(s.Questions)
	}
	return n
}
