package game

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/TomaTV/taquiz.fr/internal/models"
)

func TestAssemblePoolIsPermutationOfAllSubmissions(t *testing.T) {
	submissions := map[string]models.QuestionSubmission{
		"p1": {Questions: []string{"Q1", "Q2"}, SubmittedAt: 100},
		"p2": {Questions: []string{"Q3"}, SubmittedAt: 200},
		"p3": {Questions: []string{"Q4", "Q5", "Q6"}, SubmittedAt: 150},
	}

	pool := AssemblePool(submissions, rand.New(rand.NewSource(1)))

	want := []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6"}
	if len(pool) != len(want) {
		t.Fatalf("pool has %d questions, want %d", len(pool), len(want))
	}
	got := append([]string(nil), pool...)
	sort.Strings(got)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pool is not a permutation of submissions: %v", pool)
		}
	}
}

func TestAssemblePoolEmpty(t *testing.T) {
	if pool := AssemblePool(nil, nil); len(pool) != 0 {
		t.Errorf("pool from no submissions = %v, want empty", pool)
	}
}

func TestAssemblePoolShuffleIsUniform(t *testing.T) {
	// Three questions have six permutations; over many shuffles each
	// should appear with roughly equal frequency. The tolerance is loose
	// enough to keep the test stable while still catching a biased
	// shuffle (a sort-with-random-comparator skews far beyond it).
	submissions := map[string]models.QuestionSubmission{
		"p1": {Questions: []string{"A", "B", "C"}, SubmittedAt: 1},
	}
	rng := rand.New(rand.NewSource(42))

	const runs = 6000
	counts := make(map[string]int)
	for range runs {
		pool := AssemblePool(submissions, rng)
		counts[pool[0]+pool[1]+pool[2]]++
	}

	if len(counts) != 6 {
		t.Fatalf("saw %d distinct permutations, want 6", len(counts))
	}
	want := runs / 6
	for perm, n := range counts {
		if n < want*8/10 || n > want*12/10 {
			t.Errorf("permutation %s occurred %d times, want about %d", perm, n, want)
		}
	}
}

func TestPoolSize(t *testing.T) {
	submissions := map[string]models.QuestionSubmission{
		"p1": {Questions: []string{"Q1", "Q2"}},
		"p2": {Questions: []string{"Q3"}},
	}
	if got := PoolSize(submissions); got != 3 {
		t.Errorf("PoolSize = %d, want 3", got)
	}
	if got := PoolSize(nil); got != 0 {
		t.Errorf("PoolSize(nil) = %d, want 0", got)
	}
}
