package kernel

// SeedState is a counter-based splittable pseudo-random seed source. Each
// draw derives its value from the root entropy and a per-draw counter, so
// the i-th seed of a run is independent of how many draws preceded it in a
// different run. This is what makes re-running a subset of a spectral loop
// reproducible.
//
// SeedState replaces any process-wide RNG singleton: it is an explicit
// value passed through the call chain. It is not safe for concurrent use;
// parallel workers should each receive their own Split.
type SeedState struct {
	root    uint64
	counter uint64
}

// NewSeedState returns a SeedState rooted at the given seed.
func NewSeedState(root uint64) *SeedState {
	return &SeedState{root: root}
}

// Next returns the next seed in the sequence and advances the counter.
func (s *SeedState) Next() uint64 {
	s.counter++
	return mix64(s.root + s.counter*0x9e3779b97f4a7c15)
}

// Counter returns the number of seeds drawn so far.
func (s *SeedState) Counter() uint64 { return s.counter }

// Split derives an independent SeedState for the given stream key. Streams
// with distinct keys produce statistically independent sequences from the
// same root, which lets parallel scene clones draw seeds without sharing
// the parent's counter.
func (s *SeedState) Split(key uint64) *SeedState {
	return &SeedState{root: mix64(s.root ^ mix64(key+0x9e3779b97f4a7c15))}
}

// mix64 is the SplitMix64 finalizer: a bijective mixing function with good
// avalanche behaviour over the full 64-bit space.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
