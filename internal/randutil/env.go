package randutil

// MergeEnv concatenates two environment slices, preserving order: base
// entries first, then extra. Mirrors arr_join's pointer-array concatenation,
// expressed as a plain slice append since Go strings need no null-termination
// bookkeeping.
func MergeEnv(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}

// PreloadEnv returns the environment the driver injects into the victim:
// LD_PRELOAD and LD_BIND_NOW prepended ahead of the inherited environment,
// per spec §6.
func PreloadEnv(inherited []string, soPath string) []string {
	return MergeEnv([]string{
		"LD_PRELOAD=" + soPath,
		"LD_BIND_NOW=1",
	}, inherited)
}
