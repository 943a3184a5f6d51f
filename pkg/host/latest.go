package host

import (
	"github.com/Masterminds/semver/v3"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Latest keeps one entry per class id: the one with the highest version.
// Versions that do not parse rank below any that do; among equals the
// first entry wins. The order of the surviving entries is preserved.
func Latest(infos []PluginInfo) []PluginInfo {
	best := make(map[vst3.TUID]int, len(infos))
	for i, info := range infos {
		j, ok := best[info.ID]
		if !ok || newerVersion(info.Version, infos[j].Version) {
			best[info.ID] = i
		}
	}
	out := make([]PluginInfo, 0, len(best))
	for i, info := range infos {
		if best[info.ID] == i {
			out = append(out, info)
		}
	}
	return out
}

// newerVersion reports whether a is strictly newer than b.
func newerVersion(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	default:
		return va.GreaterThan(vb)
	}
}
