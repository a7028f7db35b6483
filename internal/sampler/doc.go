// Package sampler implements inverse-CDF sampling over a finite set of
// non-negative weights.
//
// A Discrete is built once from raw weights and then answers Draw queries in
// O(log n) with a single uniform deviate. Zero-weight bins are never drawn and
// deviates at or above the top of the table clamp to the last non-zero bin, so
// Draw never returns an out-of-range index.
package sampler
