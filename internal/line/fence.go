package line

import "sync/atomic"

// Fence is a monotonic generation counter shared between the render loop
// and the builders. The render loop signals it once per issued draw; a
// builder compares a remembered generation against it to learn whether an
// arena can no longer be read by any in-flight draw. Lock-free on both
// sides.
type Fence struct {
	gen atomic.Int64
}

// Signal records that one more draw has been issued and returns the new
// generation.
func (f *Fence) Signal() int64 {
	return f.gen.Add(1)
}

// Generation returns the number of draws issued so far.
func (f *Fence) Generation() int64 {
	return f.gen.Load()
}

// Reached reports whether the fence has passed the given generation.
func (f *Fence) Reached(gen int64) bool {
	return f.gen.Load() >= gen
}
