//go:build !nogl
// +build !nogl

package opengl

// bindata holds the GLSL sources by file name.
var bindata = map[string]string{
	"disc.vert": `#version 330 core

layout(location = 0) in vec2 pos;
layout(location = 1) in vec2 vel;
layout(location = 2) in float radius;
layout(location = 3) in vec4 color;

out Disc {
	vec2 vel;
	float radius;
	vec4 color;
} v;

void main() {
	gl_Position = vec4(pos, 0, 1);
	v.vel = vel;
	v.radius = radius;
	v.color = color;
}
`,
	"disc.geom": `#version 330 core

layout(points) in;
layout(triangle_strip, max_vertices = 4) out;

uniform vec2 vp[2];

in Disc {
	vec2 vel;
	float radius;
	vec4 color;
} v[];

out vec2 uv;
out vec2 dir;
out vec4 color;

void corner(vec2 c, float r, vec2 d, vec2 k) {
	uv = k;
	dir = d;
	color = v[0].color;
	gl_Position = vec4(2 * (c + r * k - vp[0]) / (vp[1] - vp[0]) - 1, 0, 1);
	EmitVertex();
}

void main() {
	vec2 c = gl_in[0].gl_Position.xy;
	float r = v[0].radius;
	float s = length(v[0].vel);
	vec2 d = s > 0 ? v[0].vel / s : vec2(0);
	corner(c, r, d, vec2(-1, -1));
	corner(c, r, d, vec2(1, -1));
	corner(c, r, d, vec2(-1, 1));
	corner(c, r, d, vec2(1, 1));
	EndPrimitive();
}
`,
	"disc.frag": `#version 330 core

in vec2 uv;
in vec2 dir;
in vec4 color;

out vec4 frag;

void main() {
	float d = length(uv);
	if (d > 1) {
		discard;
	}
	// darken the front of moving agents
	float k = (d > 0.5 && dot(uv, dir) > 0.6 * d) ? 0.5 : 1.0;
	frag = vec4(k * color.rgb, color.a);
}
`,
	"line.vert": `#version 330 core

layout(location = 0) in vec2 pos;
layout(location = 1) in vec4 color;

uniform vec2 vp[2];

out vec4 c;

void main() {
	gl_Position = vec4(2 * (pos - vp[0]) / (vp[1] - vp[0]) - 1, 0, 1);
	c = color;
}
`,
	"line.frag": `#version 330 core

in vec4 c;

out vec4 frag;

void main() {
	frag = c;
}
`,
}
