package gfx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	lin "github.com/xlab/linmath"
)

func TestVulkanProjectionMatFixup(t *testing.T) {
	var proj, m lin.Mat4x4
	proj.Identity()
	VulkanProjectionMat(&m, &proj)

	assert.Equal(t, float32(1), m[0][0])
	assert.Equal(t, float32(-1), m[1][1], "y is flipped")
	assert.Equal(t, float32(0.5), m[2][2], "z is halved")
	assert.Equal(t, float32(0.5), m[3][2], "and shifted into [0, 1]")
	assert.Equal(t, float32(1), m[3][3])
}

func TestPerspectiveProjectionDepthRange(t *testing.T) {
	var m lin.Mat4x4
	near, far := float32(0.1), float32(100)
	PerspectiveProjection(&m, float32(math.Pi/4), 16.0/9.0, near, far)

	depth := func(z float32) float32 {
		v := lin.Vec4{0, 0, z, 1}
		var out lin.Vec4
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				out[row] += m[col][row] * v[col]
			}
		}
		return out[2] / out[3]
	}
	assert.InDelta(t, 0, depth(-near), 1e-5)
	assert.InDelta(t, 1, depth(-far), 1e-4)
	assert.Less(t, m[1][1], float32(0))
}
