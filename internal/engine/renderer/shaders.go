package renderer

const meshVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec4 aColor;

uniform mat4 uModel;
uniform mat3 uNormalMatrix;
uniform mat4 uView;
uniform mat4 uProjection;
uniform mat4 uLightSpace;

out vec3 vWorldPos;
out vec3 vNormal;
out vec4 vColor;
out vec4 vLightPos;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = normalize(uNormalMatrix * aNormal);
    vColor = aColor;
    vLightPos = uLightSpace * world;
    gl_Position = uProjection * uView * world;
}
`

const meshFragmentShader = `#version 410 core

in vec3 vWorldPos;
in vec3 vNormal;
in vec4 vColor;
in vec4 vLightPos;

uniform vec3 uTint;
uniform vec3 uSkyColor;
uniform vec3 uGroundColor;
uniform vec3 uLightDir;
uniform vec3 uLightColor;
uniform vec3 uCameraPos;
uniform float uShadowBias;
uniform int uShadowEnabled;
uniform sampler2DShadow uShadowMap;

out vec4 FragColor;

vec3 toLinear(vec3 c) {
    return pow(c, vec3(2.2));
}

float shadowFactor() {
    if (uShadowEnabled == 0) {
        return 1.0;
    }
    vec3 p = vLightPos.xyz / vLightPos.w * 0.5 + 0.5;
    if (p.z > 1.0) {
        return 1.0;
    }
    return texture(uShadowMap, vec3(p.xy, p.z + uShadowBias));
}

void main() {
    vec3 n = normalize(vNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    vec3 albedo = toLinear(vColor.rgb) * uTint;

    float hemi = n.y * 0.5 + 0.5;
    vec3 ambient = mix(uGroundColor, uSkyColor, hemi);

    vec3 l = -uLightDir;
    float diff = max(dot(n, l), 0.0);

    vec3 v = normalize(uCameraPos - vWorldPos);
    vec3 h = normalize(l + v);
    float spec = pow(max(dot(n, h), 0.0), 30.0) * 0.2;

    vec3 color = albedo * (ambient + uLightColor * diff * shadowFactor()) + uLightColor * spec * shadowFactor();
    FragColor = vec4(color, vColor.a);
}
`

const depthVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;

uniform mat4 uModel;
uniform mat4 uLightSpace;

void main() {
    gl_Position = uLightSpace * uModel * vec4(aPosition, 1.0);
}
`

const depthFragmentShader = `#version 410 core

void main() {
}
`

var meshUniforms = []string{
	"uModel", "uNormalMatrix", "uView", "uProjection", "uLightSpace",
	"uTint", "uSkyColor", "uGroundColor", "uLightDir", "uLightColor",
	"uCameraPos", "uShadowBias", "uShadowEnabled", "uShadowMap",
}

var depthUniforms = []string{"uModel", "uLightSpace"}
