// Package emission holds the binned emission probability model: three
// independent marginals (spatial voxels, energy intervals, solid-angle
// patches), each backed by a sampler.Discrete.
//
// Random-stream consumption is fixed so runs are reproducible for a seed:
//
//	SamplePosition   4 deviates: bin, x, y, z
//	SampleEnergy     2 deviates: bin, position inside the interval
//	SampleDirection  3 deviates: bin, cos(theta), phi
//
// The second energy deviate is consumed even with centre interpolation.
package emission
