// Package balancer implements deterministic weighted selection across
// the read replicas of a replication group.
package balancer

// Candidate a selectable replica with its relative capacity weight
type Candidate struct {
	ID     string
	Weight float64
}

type node struct {
	id      string
	weight  int
	current int
}

// WeightedRoundRobin smooth weighted round-robin over a fixed
// candidate set. Over any window of N calls, N being the sum of the
// normalized integer weights, each candidate is returned a number of
// times proportional to its weight, and selection is a pure function
// of the internal cursor state.
//
// Not safe for concurrent use; the owning directory serializes access.
type WeightedRoundRobin struct {
	nodes []node
	total int
}

// NewWeightedRoundRobin returns a balancer over candidates with
// weight > 0. Candidates with weight <= 0 are dropped. Float weights
// are normalized to integers at 1/100 resolution and reduced by their
// greatest common divisor.
func NewWeightedRoundRobin(candidates ...Candidate) *WeightedRoundRobin {
	b := &WeightedRoundRobin{}
	for _, c := range candidates {
		w := int(c.Weight*100 + 0.5)
		if w <= 0 {
			continue
		}

		b.nodes = append(b.nodes, node{id: c.ID, weight: w})
	}

	b.normalize()
	return b
}

func (b *WeightedRoundRobin) normalize() {
	d := 0
	for _, n := range b.nodes {
		d = gcd(d, n.weight)
	}

	b.total = 0
	for i := range b.nodes {
		if d > 1 {
			b.nodes[i].weight /= d
		}
		b.total += b.nodes[i].weight
	}
}

// Empty returns true when no candidate has positive weight
func (b *WeightedRoundRobin) Empty() bool {
	return len(b.nodes) == 0
}

// Candidates returns the candidate count
func (b *WeightedRoundRobin) Candidates() int {
	return len(b.nodes)
}

// Next returns the id of the next candidate. The choice only advances
// the internal cursor; it is deterministic and reproducible.
func (b *WeightedRoundRobin) Next() string {
	if len(b.nodes) == 0 {
		return ""
	}

	best := 0
	for i := range b.nodes {
		b.nodes[i].current += b.nodes[i].weight
		if b.nodes[i].current > b.nodes[best].current {
			best = i
		}
	}

	b.nodes[best].current -= b.total
	return b.nodes[best].id
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}
