package gfx

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyIndices holds the graphics and present family indices chosen
// for a device. -1 means not found.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

func noQueueFamilies() QueueFamilyIndices {
	return QueueFamilyIndices{Graphics: -1, Present: -1}
}

// IsValid reports whether both families were found.
func (q QueueFamilyIndices) IsValid() bool {
	return q.Graphics >= 0 && q.Present >= 0
}

// GPShared reports whether graphics and present use the same family.
func (q QueueFamilyIndices) GPShared() bool {
	return q.Graphics == q.Present
}

// resolveQueueFamilies walks the families in index order and records the
// first graphics-capable family with at least one queue and the first family
// that can present, stopping once both are known.
func resolveQueueFamilies(props []vk.QueueFamilyProperties, presentSupport func(index uint32) bool) QueueFamilyIndices {
	indices := noQueueFamilies()
	for i := range props {
		family := props[i]
		family.Deref()
		if indices.Graphics < 0 && family.QueueCount > 0 &&
			family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics = i
		}
		if indices.Present < 0 && presentSupport != nil && presentSupport(uint32(i)) {
			indices.Present = i
		}
		if indices.IsValid() {
			break
		}
	}
	return indices
}

func queueFamilyProperties(gpu vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	return props[:count]
}

func findQueueFamilies(gpu vk.PhysicalDevice, surface vk.Surface) QueueFamilyIndices {
	return resolveQueueFamilies(queueFamilyProperties(gpu), func(index uint32) bool {
		var supported vk.Bool32
		ret := vk.GetPhysicalDeviceSurfaceSupport(gpu, index, surface, &supported)
		return !isError(ret) && supported.B()
	})
}

// uniqueQueueFamilies returns the distinct family indices, ascending.
func uniqueQueueFamilies(indices QueueFamilyIndices) []uint32 {
	seen := map[int]bool{}
	var out []uint32
	for _, i := range []int{indices.Graphics, indices.Present} {
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, uint32(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// queueCreateInfos builds one single-queue create info per distinct family.
func queueCreateInfos(indices QueueFamilyIndices) []vk.DeviceQueueCreateInfo {
	families := uniqueQueueFamilies(indices)
	infos := make([]vk.DeviceQueueCreateInfo, 0, len(families))
	for _, family := range families {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	return infos
}
