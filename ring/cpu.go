package ring

import "github.com/klauspost/cpuid/v2"

// nttUnroll is the butterfly-loop unrolling stride nttLevel and invNTTLevel use as a
// vectorization-friendly stride; wider CPU feature sets get a wider stride.
// Matches the teacher's CPU-feature-gated dispatch convention (picking a stride/width
// constant at init() rather than shipping hand-written assembly per level).
var nttUnroll = detectNTTUnroll()

func detectNTTUnroll() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return 8
	case cpuid.CPU.Supports(cpuid.AVX2):
		return 4
	default:
		return 1
	}
}

// NTTUnrollWidth reports the butterfly-loop unrolling stride selected for this CPU,
// exposed for benchmarking and diagnostics.
func NTTUnrollWidth() int { return nttUnroll }
