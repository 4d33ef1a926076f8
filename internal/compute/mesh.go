package compute

// Screen mesh grades selectable on the dashboard.
const (
	MeshAPI100 = "API 100"
	MeshAPI140 = "API 140"
	MeshAPI170 = "API 170"
	MeshAPI200 = "API 200"
)

// meshCapacity maps a mesh grade to its rated throughput capacity. The
// values are opaque calibration constants; finer meshes take less volume.
var meshCapacity = map[string]float64{
	MeshAPI100: 250,
	MeshAPI140: 200,
	MeshAPI170: 160,
	MeshAPI200: 120,
}

// meshOrder is the display order, coarsest first.
var meshOrder = []string{MeshAPI100, MeshAPI140, MeshAPI170, MeshAPI200}

// Capacity returns the rated capacity for a mesh grade.
func Capacity(mesh string) (float64, bool) {
	c, ok := meshCapacity[mesh]
	return c, ok
}

// MeshTypes returns all known mesh grades in display order.
func MeshTypes() []string {
	out := make([]string, len(meshOrder))
	copy(out, meshOrder)
	return out
}
