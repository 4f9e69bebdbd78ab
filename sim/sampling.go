package sim

import "math/rand"

// NormalDist parameterizes a normal distribution, used for tool speeds,
// shelf-removal times and tool-transfer times.
type NormalDist struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
}

// Sample draws one value. Exactly one NormFloat64 is consumed from rng, even
// when Std is zero, so the stream position does not depend on parameters.
func (d NormalDist) Sample(rng *rand.Rand) float64 {
	return rng.NormFloat64()*d.Std + d.Mean
}
