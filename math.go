package gfx

import lin "github.com/xlab/linmath"

// VulkanProjectionMat converts an OpenGL style projection matrix to Vulkan style projection matrix.
// Vulkan has a topLeft clipSpace with [0, 1] depth range instead of [-1, 1].
//
// linmath outputs projection matrices in GL style clipSpace,
// perform a simple fixup step to change the projection to Vulkan style.
func VulkanProjectionMat(m *lin.Mat4x4, proj *lin.Mat4x4) {
	var fix lin.Mat4x4
	fix.Identity()
	// Flip Y in clipspace. X = -1, Y = -1 is topLeft in Vulkan.
	fix[1][1] = -1
	// Z depth is [0, 1] range instead of [-1, 1]: z' = 0.5*z + 0.5*w.
	fix[2][2] = 0.5
	fix[3][2] = 0.5
	m.Mult(&fix, proj)
}

// PerspectiveProjection builds a Vulkan clip-space perspective matrix.
// fovy is in radians.
func PerspectiveProjection(m *lin.Mat4x4, fovy, aspect, near, far float32) {
	var gl lin.Mat4x4
	gl.Perspective(fovy, aspect, near, far)
	VulkanProjectionMat(m, &gl)
}
