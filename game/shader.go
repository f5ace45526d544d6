package game

import (
	"strconv"
	"strings"

	"github.com/pthm-cable/gpgpu/components"
	"github.com/pthm-cable/gpgpu/macro"
)

// fragmentTemplate updates the particle values. Each pass writes only the
// values bound to it; the rest of the body compiles out.
const fragmentTemplate = `#version 330
precision highp float;

gpgpu_useUniforms
gpgpu_useOutputs

uniform float time;
uniform float dt;
uniform float drag;
uniform float lifetime;
uniform float strength;
uniform int attractorCount;
uniform vec3 attractors[MAX_ATTRACTORS];

float hash(vec2 p) {
    return fract(sin(dot(p, vec2(12.9898, 78.233)))*43758.5453);
}

void main() {
#ifdef gpgpu_samples_l
    gpgpu_tapState(gpgpu_uv);
#endif

    // Particles that run out of life respawn at a random point.
#ifdef gpgpu_output_life
    float life = gpgpu_read_life_0-dt/lifetime;
    gpgpu_output_life = (life <= 0.0)? 1.0 : life;
#endif

#ifdef gpgpu_output_position
    vec2 pos = gpgpu_read_position_0;
    vec2 vel = gpgpu_read_position_1;
    bool dead = gpgpu_read_position_2-dt/lifetime <= 0.0;
    vec2 spawn = vec2(hash(gpgpu_uv+time), hash(gpgpu_uv.yx-time));
    gpgpu_output_position = dead? spawn : fract(pos+vel*dt);
#endif

#ifdef gpgpu_output_motion
    vec2 at = gpgpu_read_motion_0;
    vec2 v = gpgpu_read_motion_1;
    vec2 force = vec2(0.0);
    for (int i = 0; i < MAX_ATTRACTORS; ++i) {
        if (i >= attractorCount) {
            break;
        }
        vec2 d = attractors[i].xy-at;
        force += attractors[i].z*d/(dot(d, d)+0.01);
    }
    v = v*pow(drag, dt)+force*strength*dt;
    bool gone = gpgpu_read_motion_2-dt/lifetime <= 0.0;
    gpgpu_output_motion = gone? vec2(0.0) : v;
#endif
}
`

// fragmentSource renders the template for a macro prefix.
func fragmentSource(prefix string) string {
	if prefix == "" {
		prefix = macro.DefaultPrefix
	}
	src := strings.ReplaceAll(fragmentTemplate, "gpgpu_", prefix)
	return strings.ReplaceAll(src, "MAX_ATTRACTORS", strconv.Itoa(components.MaxAttractors))
}
