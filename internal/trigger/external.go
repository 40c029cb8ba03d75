package trigger

// computeExternal scans the trigger channel for the first level crossing
// in the configured direction. The offset lands on the first sample past
// the crossing, so a step through the level always triggers at the sample
// that already sits on the far side.
//
// The detector must be armed before it can fire: the signal has to back
// off past the hysteresis band first, and the edge must lie at least
// DeadTime samples after the previous one. Both guards suppress retriggers
// on noise riding the level.
func computeExternal(in Input, cfg Config, st *State) Result {
	if in.Trigger == nil {
		return freeze(st)
	}
	samples := in.Trigger.Samples
	if len(samples) < 2 {
		return freeze(st)
	}

	slope := cfg.Slope
	if slope == 0 {
		slope = 1
	}

	m := maxOffset(len(in.Window.Samples), cfg.WindowLen)
	armed := false
	for i := 0; i < len(samples) && i <= m; i++ {
		v := samples[i]
		if slope < 0 {
			v = -v
		}
		level := cfg.Level
		if slope < 0 {
			level = -cfg.Level
		}
		if !armed {
			if v < level-cfg.Hysteresis {
				armed = true
			}
			continue
		}
		if v >= level {
			edge := in.Trigger.Start + int64(i)
			if edge < st.LastEdge+cfg.DeadTime {
				armed = false
				continue
			}
			return Result{Offset: float64(i), Confidence: 1, edge: edge}
		}
	}

	return freeze(st)
}
