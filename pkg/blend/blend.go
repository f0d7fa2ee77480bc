// Package blend implements the temporal frame blending engine.
package blend

import (
	"image"
)

// Apply blends incoming into prev with per-channel weighted averaging:
//
//	prev[i] = clamp8(prev[i]*weightOld + incoming[i]*weightNew)
//
// It operates in place on prev and returns the same buffer; callers must
// treat prev as consumed rather than as still holding pre-blend values.
// Both buffers must share identical dimensions (the resize invalidation
// rule upstream guarantees this).
//
// Weights are not renormalized. A weight sum other than 1 drifts the
// output brighter or darker over successive frames; that is an intended
// tunable, not a defect to correct here.
func Apply(prev, incoming *image.RGBA, weightOld, weightNew float64) *image.RGBA {
	p := prev.Pix
	q := incoming.Pix
	n := len(p)
	if len(q) < n {
		n = len(q)
	}
	for i := 0; i < n; i++ {
		v := float64(p[i])*weightOld + float64(q[i])*weightNew
		if v <= 0 {
			p[i] = 0
			continue
		}
		if v >= 255 {
			p[i] = 255
			continue
		}
		p[i] = uint8(v + 0.5)
	}
	return prev
}

// Weights holds the temporal blend weight pair.
type Weights struct {
	Old float64 // weight of the previous blended buffer
	New float64 // weight of the freshly sampled buffer
}
