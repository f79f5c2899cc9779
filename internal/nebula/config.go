package nebula

// Tunable parameters of the particle field.
// Distances and sizes are in world units; the camera sits MaxDistance away.

// Stars
const (
	ParticleCount = 300
	MaxDistance   = 1000.0 // Stars past this radius restart at the origin
	MaxSpeed      = 20.0   // Per-axis velocity bound, world units per frame
	StarSize      = 380.0  // Sprite size before perspective attenuation
)

// Beams
const (
	BeamCount   = 40
	BeamLength  = 5000.0
	BeamWidth   = 50.0
	BeamOpacity = 0.15
)

// Rotation increments, radians per frame
const (
	StarRotSpeed = 0.01
	BeamRotSpeed = 0.003
)

// Camera
const (
	CameraDistance = 1000.0
	CameraFOV      = 75.0 // Degrees, vertical
	CameraNear     = 1.0
	CameraFar      = 3000.0
	CameraDamping  = 0.3
)

// Viewport sizing
const (
	InitialSizeFactor = 0.7
	MinSizeFactor     = 0.2
	MaxSizeFactor     = 1.0
	WheelStep         = 0.20
	LetterboxAspect   = 5.0 / 9.0 // height / width below full size
)
