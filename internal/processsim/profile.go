package processsim

const (
	gridSize = 50
	gridHalf = 5.0
)

// Surface is a gridSize x gridSize height map over [-5, 5] mm in x and y.
type Surface struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	Z [][]float64 `json:"z"`
}

func axis() []float64 {
	out := make([]float64, gridSize)
	step := 2 * gridHalf / float64(gridSize-1)
	for i := range out {
		out[i] = -gridHalf + float64(i)*step
	}
	return out
}

func surface(height func(x, y float64) float64) Surface {
	xs, ys := axis(), axis()
	z := make([][]float64, len(ys))
	for i, y := range ys {
		row := make([]float64, len(xs))
		for j, x := range xs {
			row[j] = height(x, y)
		}
		z[i] = row
	}
	return Surface{X: xs, Y: ys, Z: z}
}

// CVDProfile thickens toward the edge as uniformity drops.
func CVDProfile(r CVDResult) Surface {
	return surface(func(x, y float64) float64 {
		return r.Thickness * (1 + 0.01*(100-r.Uniformity)*(x*x+y*y)/50)
	})
}

// RIEProfile is a negative depth map whose edges undercut as anisotropy drops.
func RIEProfile(r RIEResult) Surface {
	undercut := (100 - r.Anisotropy) / 200
	return surface(func(x, y float64) float64 {
		return -r.EtchDepth * (1 - undercut*(x*x+y*y)/50)
	})
}

// SputteringProfile is flat at one minute of deposition.
func SputteringProfile(r SputteringResult) Surface {
	return surface(func(_, _ float64) float64 { return r.DepositionRate })
}
