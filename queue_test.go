package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func family(flags vk.QueueFlagBits, count uint32) vk.QueueFamilyProperties {
	return vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(flags), QueueCount: count}
}

func presentOn(indices ...uint32) func(uint32) bool {
	return func(i uint32) bool {
		for _, idx := range indices {
			if idx == i {
				return true
			}
		}
		return false
	}
}

func TestResolveQueueFamiliesShared(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit|vk.QueueComputeBit, 16),
		family(vk.QueueTransferBit, 2),
	}
	q := resolveQueueFamilies(props, presentOn(0, 1))
	assert.Equal(t, QueueFamilyIndices{Graphics: 0, Present: 0}, q)
	assert.True(t, q.IsValid())
	assert.True(t, q.GPShared())
}

func TestResolveQueueFamiliesSeparate(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		family(vk.QueueComputeBit, 4),
		family(vk.QueueGraphicsBit, 1),
		family(vk.QueueTransferBit, 1),
	}
	q := resolveQueueFamilies(props, presentOn(2))
	assert.Equal(t, 1, q.Graphics)
	assert.Equal(t, 2, q.Present)
	assert.True(t, q.IsValid())
	assert.False(t, q.GPShared())
}

func TestResolveQueueFamiliesSkipsEmptyGraphicsFamily(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit, 0),
		family(vk.QueueGraphicsBit, 1),
	}
	q := resolveQueueFamilies(props, presentOn(0))
	assert.Equal(t, 1, q.Graphics)
	assert.Equal(t, 0, q.Present)
}

func TestResolveQueueFamiliesStopsOnceBothFound(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit, 1),
		family(vk.QueueGraphicsBit, 1),
		family(vk.QueueGraphicsBit, 1),
	}
	var asked []uint32
	q := resolveQueueFamilies(props, func(i uint32) bool {
		asked = append(asked, i)
		return i == 1
	})
	assert.Equal(t, QueueFamilyIndices{Graphics: 0, Present: 1}, q)
	assert.Equal(t, []uint32{0, 1}, asked)
}

func TestResolveQueueFamiliesMissing(t *testing.T) {
	q := resolveQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueComputeBit, 1)}, presentOn(0))
	assert.Equal(t, -1, q.Graphics)
	assert.Equal(t, 0, q.Present)
	assert.False(t, q.IsValid())

	q = resolveQueueFamilies(nil, presentOn())
	assert.Equal(t, noQueueFamilies(), q)
	assert.False(t, q.IsValid())

	q = resolveQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, presentOn())
	assert.Equal(t, 0, q.Graphics)
	assert.Equal(t, -1, q.Present)
	assert.False(t, q.IsValid())
}

func TestUniqueQueueFamilies(t *testing.T) {
	assert.Equal(t, []uint32{3}, uniqueQueueFamilies(QueueFamilyIndices{Graphics: 3, Present: 3}))
	assert.Equal(t, []uint32{1, 4}, uniqueQueueFamilies(QueueFamilyIndices{Graphics: 4, Present: 1}))
	assert.Empty(t, uniqueQueueFamilies(noQueueFamilies()))
}

func TestQueueCreateInfos(t *testing.T) {
	infos := queueCreateInfos(QueueFamilyIndices{Graphics: 0, Present: 0})
	require.Len(t, infos, 1)
	assert.Equal(t, uint32(0), infos[0].QueueFamilyIndex)
	assert.Equal(t, uint32(1), infos[0].QueueCount)

	infos = queueCreateInfos(QueueFamilyIndices{Graphics: 2, Present: 0})
	require.Len(t, infos, 2)
	assert.Equal(t, uint32(0), infos[0].QueueFamilyIndex)
	assert.Equal(t, uint32(2), infos[1].QueueFamilyIndex)
	for _, info := range infos {
		assert.Equal(t, vk.StructureTypeDeviceQueueCreateInfo, info.SType)
		assert.Equal(t, []float32{1.0}, info.PQueuePriorities)
	}
}
