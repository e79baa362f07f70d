package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProportionalDistribution(t *testing.T) {
	b := NewWeightedRoundRobin(
		Candidate{ID: "s1", Weight: 1},
		Candidate{ID: "s2", Weight: 3})

	counts := make(map[string]int)
	for i := 0; i < 1000; i++ {
		counts[b.Next()]++
	}

	assert.Equal(t, 1000, counts["s1"]+counts["s2"], "check total failed")
	assert.True(t, counts["s2"] >= counts["s1"]*3-100, "check s2 share failed")
	assert.True(t, counts["s2"] <= counts["s1"]*3+100, "check s2 share failed")
}

func TestDeterministic(t *testing.T) {
	b1 := NewWeightedRoundRobin(
		Candidate{ID: "a", Weight: 2},
		Candidate{ID: "b", Weight: 1},
		Candidate{ID: "c", Weight: 1})
	b2 := NewWeightedRoundRobin(
		Candidate{ID: "a", Weight: 2},
		Candidate{ID: "b", Weight: 1},
		Candidate{ID: "c", Weight: 1})

	for i := 0; i < 100; i++ {
		assert.Equal(t, b1.Next(), b2.Next(), "check determinism failed")
	}
}

func TestSmoothInterleave(t *testing.T) {
	b := NewWeightedRoundRobin(
		Candidate{ID: "a", Weight: 5},
		Candidate{ID: "b", Weight: 1},
		Candidate{ID: "c", Weight: 1})

	// the classic smooth WRR sequence for 5/1/1 never emits the two
	// light candidates back to back around the cycle boundary
	seq := ""
	for i := 0; i < 7; i++ {
		seq += b.Next()
	}
	assert.Equal(t, "aabacaa", seq, "check smooth sequence failed")
}

func TestFloatWeightNormalize(t *testing.T) {
	b := NewWeightedRoundRobin(
		Candidate{ID: "a", Weight: 0.5},
		Candidate{ID: "b", Weight: 1.5})

	counts := make(map[string]int)
	for i := 0; i < 400; i++ {
		counts[b.Next()]++
	}

	assert.Equal(t, 100, counts["a"], "check normalized share failed")
	assert.Equal(t, 300, counts["b"], "check normalized share failed")
}

func TestDropNonPositiveWeight(t *testing.T) {
	b := NewWeightedRoundRobin(
		Candidate{ID: "a", Weight: 0},
		Candidate{ID: "b", Weight: 1})

	assert.Equal(t, 1, b.Candidates(), "check candidate filter failed")
	assert.Equal(t, "b", b.Next(), "check selection failed")

	empty := NewWeightedRoundRobin(Candidate{ID: "a", Weight: 0})
	assert.True(t, empty.Empty(), "check empty balancer failed")
	assert.Equal(t, "", empty.Next(), "check empty selection failed")
}
