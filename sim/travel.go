package sim

import (
	"math"
	"math/rand"
	"sort"
)

// stop is one point visited inside an aisle.
type stop struct {
	x, y, z float64
}

// tripSeconds estimates the duration of a trip over the given picks:
// shelf-removal times, the walk from the entry point to the first aisle and
// back from the last, the legs inside every aisle and the lateral legs
// between aisles. The result is rounded to whole seconds. Speeds are drawn
// from rng per leg: a horizontal then a vertical speed for each intra-aisle
// leg, one horizontal speed for each inter-aisle leg.
func tripSeconds(w *Warehouse, t *Tool, rng *rand.Rand, picks []TaskEntry) (float64, int, error) {
	if len(picks) == 0 {
		return 0, 0, nil
	}
	total := 0.0
	byAisle := make(map[int][]stop)
	for _, p := range picks {
		total += p.FetchTime
		c, err := w.Cell(p.Location)
		if err != nil {
			return 0, 0, err
		}
		byAisle[p.Aisle] = append(byAisle[p.Aisle], stop{x: c.X, y: c.Y, z: c.Z})
	}
	aisles := make([]int, 0, len(byAisle))
	for a := range byAisle {
		aisles = append(aisles, a)
	}
	sort.Ints(aisles)

	total += w.AisleDistance(aisles[0])
	total += w.AisleDistance(aisles[len(aisles)-1])

	aisleY := make([]float64, len(aisles))
	for i, a := range aisles {
		stops := byAisle[a]
		sort.SliceStable(stops, func(i, j int) bool { return stops[i].x < stops[j].x })
		aisleY[i] = stops[0].y

		path := make([]stop, 0, len(stops)+2)
		path = append(path, stop{})
		path = append(path, stops...)
		path = append(path, stop{})
		for j := 1; j < len(path); j++ {
			total += aisleLegSeconds(path[j-1], path[j], t, rng)
		}
	}

	for i := 1; i < len(aisleY); i++ {
		speed := t.HorizontalSpeed.Sample(rng)
		if speed > 0 && !math.IsNaN(aisleY[i-1]) && !math.IsNaN(aisleY[i]) {
			total += math.Abs(aisleY[i]-aisleY[i-1]) / speed
		}
	}
	return math.Round(total), len(aisles), nil
}

// aisleLegSeconds is the time to move between two stops of one aisle: the
// slower of the horizontal and vertical motions. A leg with an undefined
// coordinate or a non-positive speed sample costs nothing.
func aisleLegSeconds(from, to stop, t *Tool, rng *rand.Rand) float64 {
	h := t.HorizontalSpeed.Sample(rng)
	v := t.VerticalSpeed.Sample(rng)
	if math.IsNaN(from.x) || math.IsNaN(to.x) || math.IsNaN(from.z) || math.IsNaN(to.z) {
		return 0
	}
	if h <= 0 || v <= 0 {
		return 0
	}
	return math.Max(math.Abs(to.x-from.x)/h, math.Abs(to.z-from.z)/v)
}
