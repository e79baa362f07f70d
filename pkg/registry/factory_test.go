package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticSeeds(t *testing.T) {
	seeds, err := NewSeeds("static://topo1:8080?servers=topo2:8080,topo3:8080")
	assert.Nilf(t, err, "create static seeds failed with %+v", err)

	addrs, err := seeds.List()
	assert.Nilf(t, err, "list static seeds failed with %+v", err)
	assert.Equal(t, []string{"topo1:8080", "topo2:8080", "topo3:8080"}, addrs, "check seeds failed")
}
