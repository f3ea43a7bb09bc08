package config

import "slices"

// ConfigDiff describes what changed between two configs. Only the log level
// can be applied to a running process; everything else is reported so the
// caller can ask for a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	ManifestsChanged    bool
	BuiltinSeedsChanged bool
	ListenAddrChanged   bool

	TargetChanges []TargetDiff
}

// TargetDiff describes what changed for a single target.
type TargetDiff struct {
	Name    string
	Added   bool
	Removed bool
	Changed bool
}

// RequiresRestart reports whether d contains changes that only take effect
// after the process is restarted.
func (d ConfigDiff) RequiresRestart() bool {
	return d.ManifestsChanged || d.BuiltinSeedsChanged || d.ListenAddrChanged || len(d.TargetChanges) > 0
}

// Diff compares old and next configs and returns what changed. Targets are
// matched by name and reported in the order they appear in next, followed by
// removed targets in the order they appeared in old.
func Diff(old, next *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != next.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = next.LogLevel
	}
	d.ManifestsChanged = !slices.Equal(old.Manifests, next.Manifests)
	d.BuiltinSeedsChanged = old.UseBuiltinSeeds() != next.UseBuiltinSeeds()
	d.ListenAddrChanged = old.Server.ListenAddr != next.Server.ListenAddr

	oldTargets := make(map[string]TargetConfig, len(old.Targets))
	for _, t := range old.Targets {
		oldTargets[t.Name] = t
	}
	newNames := make(map[string]struct{}, len(next.Targets))
	for _, t := range next.Targets {
		newNames[t.Name] = struct{}{}
		prev, ok := oldTargets[t.Name]
		switch {
		case !ok:
			d.TargetChanges = append(d.TargetChanges, TargetDiff{Name: t.Name, Added: true})
		case prev != t:
			d.TargetChanges = append(d.TargetChanges, TargetDiff{Name: t.Name, Changed: true})
		}
	}
	for _, t := range old.Targets {
		if _, ok := newNames[t.Name]; !ok {
			d.TargetChanges = append(d.TargetChanges, TargetDiff{Name: t.Name, Removed: true})
		}
	}

	return d
}
