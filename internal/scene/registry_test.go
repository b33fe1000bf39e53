package scene

import (
	"testing"

	"github.com/annel0/blockpush/internal/physics"
	"github.com/annel0/blockpush/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FindByTagAndOwners(t *testing.T) {
	r := NewRegistry[string](100)

	id := r.NextID()
	assert.Equal(t, uint64(100), id)
	assert.Equal(t, uint64(101), r.NextID())

	ground := physics.NewBody(id, "GarbageCollider", physics.LayerDefault, vec.Vec3Float{Y: -10})
	block := physics.NewBody(200, physics.TagBlock, physics.LayerSolid, vec.Vec3Float{})
	r.Register(ground)
	r.RegisterOwned(block, "block-a")

	found := r.FindByTag("GarbageCollider")
	require.Len(t, found, 1)
	assert.Same(t, ground, found[0])

	owner, ok := r.Owner(block.ID)
	assert.True(t, ok)
	assert.Equal(t, "block-a", owner)

	_, ok = r.Owner(ground.ID)
	assert.False(t, ok, "у маркера нет владельца")

	r.Unregister(block)
	assert.Empty(t, r.FindByTag(physics.TagBlock))
	_, ok = r.Owner(block.ID)
	assert.False(t, ok)
}

func TestRegistry_UnknownTag(t *testing.T) {
	r := NewRegistry[int](1)
	assert.Empty(t, r.FindByTag("nothing"))
}
