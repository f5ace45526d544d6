// Package glsl holds small GLSL snippets shared by generated macros and
// shader sources.
package glsl

import "fmt"

// Version is the GLSL version line shaders are compiled with.
const Version = "#version 330"

// Vertex is a pass-through vertex stage using raylib's default attribute and
// uniform names.
const Vertex = Version + `
in vec3 vertexPosition;
in vec2 vertexTexCoord;
uniform mat4 mvp;
out vec2 fragTexCoord;

void main() {
    fragTexCoord = vertexTexCoord;
    gl_Position = mvp*vec4(vertexPosition, 1.0);
}
`

// MergedUV defines a function-like macro mapping a per-texture UV, a steps-ago
// offset and a texture index into the merged states texture, whose tiles are
// laid out with textures along x and step buffers along y.
func MergedUV(prefix string, steps, bound, textures int) string {
	return fmt.Sprintf("#define %[1]smergedUV(uv, s, t) "+
		"((vec2(float(t), mod(float(%[1]sstepNow+%[2]d-(s)), %[3]d.0))+(uv))/vec2(%[4]d.0, %[3]d.0))\n",
		prefix, steps-bound, steps, textures)
}

// FragCoordUV defines the current fragment's UV within the output shape.
func FragCoordUV(prefix string) string {
	return fmt.Sprintf("#define %[1]suv (gl_FragCoord.xy/%[1]sshape)\n", prefix)
}
