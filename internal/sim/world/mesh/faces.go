package mesh

type corner struct {
	pos [3]int
	uv  [2]float32
}

type face struct {
	dir     [3]int
	corners [4]corner
}

// Corners 0 and 3 are opposite. The default split shares edge 1-2.
var faces = [6]face{
	{ // -x
		dir: [3]int{-1, 0, 0},
		corners: [4]corner{
			{pos: [3]int{0, 1, 0}, uv: [2]float32{0, 1}},
			{pos: [3]int{0, 0, 0}, uv: [2]float32{0, 0}},
			{pos: [3]int{0, 1, 1}, uv: [2]float32{1, 1}},
			{pos: [3]int{0, 0, 1}, uv: [2]float32{1, 0}},
		},
	},
	{ // +x
		dir: [3]int{1, 0, 0},
		corners: [4]corner{
			{pos: [3]int{1, 1, 1}, uv: [2]float32{0, 1}},
			{pos: [3]int{1, 0, 1}, uv: [2]float32{0, 0}},
			{pos: [3]int{1, 1, 0}, uv: [2]float32{1, 1}},
			{pos: [3]int{1, 0, 0}, uv: [2]float32{1, 0}},
		},
	},
	{ // -y
		dir: [3]int{0, -1, 0},
		corners: [4]corner{
			{pos: [3]int{1, 0, 1}, uv: [2]float32{1, 0}},
			{pos: [3]int{0, 0, 1}, uv: [2]float32{0, 0}},
			{pos: [3]int{1, 0, 0}, uv: [2]float32{1, 1}},
			{pos: [3]int{0, 0, 0}, uv: [2]float32{0, 1}},
		},
	},
	{ // +y
		dir: [3]int{0, 1, 0},
		corners: [4]corner{
			{pos: [3]int{0, 1, 1}, uv: [2]float32{1, 1}},
			{pos: [3]int{1, 1, 1}, uv: [2]float32{0, 1}},
			{pos: [3]int{0, 1, 0}, uv: [2]float32{1, 0}},
			{pos: [3]int{1, 1, 0}, uv: [2]float32{0, 0}},
		},
	},
	{ // -z
		dir: [3]int{0, 0, -1},
		corners: [4]corner{
			{pos: [3]int{1, 0, 0}, uv: [2]float32{0, 0}},
			{pos: [3]int{0, 0, 0}, uv: [2]float32{1, 0}},
			{pos: [3]int{1, 1, 0}, uv: [2]float32{0, 1}},
			{pos: [3]int{0, 1, 0}, uv: [2]float32{1, 1}},
		},
	},
	{ // +z
		dir: [3]int{0, 0, 1},
		corners: [4]corner{
			{pos: [3]int{0, 0, 1}, uv: [2]float32{0, 0}},
			{pos: [3]int{1, 0, 1}, uv: [2]float32{1, 0}},
			{pos: [3]int{0, 1, 1}, uv: [2]float32{0, 1}},
			{pos: [3]int{1, 1, 1}, uv: [2]float32{1, 1}},
		},
	},
}

var (
	indicesDefault = [6]uint32{0, 1, 2, 2, 1, 3}
	indicesFlipped = [6]uint32{0, 1, 3, 3, 2, 0}
)

// aoSamples holds, per face and corner, the side, side and corner offsets
// sampled in the layer in front of the face.
var aoSamples [6][4][3][3]int

func init() {
	for f, fc := range faces {
		for c, cn := range fc.corners {
			var tangents [2][3]int
			n := 0
			for axis := 0; axis < 3; axis++ {
				if fc.dir[axis] != 0 {
					continue
				}
				var t [3]int
				t[axis] = cn.pos[axis]*2 - 1
				tangents[n] = t
				n++
			}
			base := fc.dir
			for i := 0; i < 2; i++ {
				aoSamples[f][c][i] = add(base, tangents[i])
			}
			aoSamples[f][c][2] = add(add(base, tangents[0]), tangents[1])
		}
	}
}

func add(a, b [3]int) [3]int { return [3]int{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

// aoLevels maps an occlusion value 0..3 to vertex brightness.
var aoLevels = [4]float32{75.0 / 255, 153.0 / 255, 204.0 / 255, 255.0 / 255}

func occlusion(side1, side2, cornerCell bool) uint8 {
	if side1 && side2 {
		return 0
	}
	n := uint8(0)
	for _, b := range [3]bool{side1, side2, cornerCell} {
		if b {
			n++
		}
	}
	return 3 - n
}

// flipQuad picks the split diagonal. Splitting along 0-3 keeps a dark
// corner 1 or 2 inside a single triangle. Where some corner is unlit, the
// torchlight pattern decides instead so two light sources meeting on a face
// do not smear along the wrong diagonal.
func flipQuad(ao [4]uint8, torch [4]float32) bool {
	aoFlip := int(ao[0])+int(ao[3]) > int(ao[1])+int(ao[2])
	if torch[0] > 0 && torch[1] > 0 && torch[2] > 0 && torch[3] > 0 {
		return aoFlip
	}
	d03 := torch[0] + torch[3]
	d12 := torch[1] + torch[2]
	if d03 == d12 {
		return aoFlip
	}
	// A ridge of light along one diagonal: both of its ends outshine the other two corners.
	if d03/2 > torch[1] && d03/2 > torch[2] {
		return true
	}
	if d12/2 > torch[0] && d12/2 > torch[3] {
		return false
	}
	return d03 > d12
}
