package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readrum/internal/extract"
	"readrum/internal/rpl"
)

func b64Lines(payload []byte, indent string, width int) string {
	enc := rpl.Encode(payload)
	var sb strings.Builder
	for i := 0; i < len(enc); i += width {
		j := min(i+width, len(enc))
		sb.WriteString(indent)
		sb.WriteString(enc[i:j])
		sb.WriteString("\n")
	}
	return sb.String()
}

// kitLibrary builds a library where each preset holds one outer token with
// one labeled inner payload.
func kitLibrary(presets map[string][2]string) *rpl.Container {
	var sb strings.Builder
	sb.WriteString("<REAPER_PRESET_LIBRARY \"lib\"\n")
	// Deterministic order for tests.
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	for _, name := range names {
		lp := presets[name]
		inner := []byte(lp[0] + "\x00" + lp[1] + "\x00")
		outer := []byte("pad\x00" + rpl.Encode(inner) + "\x00pad")
		sb.WriteString("  <PRESET `" + name + "`\n")
		sb.WriteString(b64Lines(outer, "    ", 76))
		sb.WriteString("  >\n")
	}
	sb.WriteString(">\n")

	c, err := rpl.Parse([]byte(sb.String()))
	if err != nil {
		panic(err)
	}
	return c
}

func TestExplicitWildcardPreset(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/old/kick.aif"},
		"Kit2": {"C4: Kick", "/old/kick.aif"},
	})

	p := Explicit(c, []Request{{
		Preset:  AnyPreset{},
		OldPath: "/old/kick.aif",
		NewPath: "/new/kick.aif",
	}}, extract.Options{})

	require.Len(t, p.Edits, 2)
	assert.Empty(t, p.Unmatched)
	assert.Equal(t, "Kit1", p.Edits[0].Preset.Name)
	assert.Equal(t, "Kit2", p.Edits[1].Preset.Name)
	assert.Equal(t, "/old/kick.aif", p.Edits[0].Old)
	assert.Equal(t, "/new/kick.aif", p.Edits[0].New)
}

func TestExplicitNamedPreset(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/old/kick.aif"},
		"Kit2": {"C4: Kick", "/old/kick.aif"},
	})

	p := Explicit(c, []Request{{
		Preset:  NamedPreset("Kit2"),
		OldPath: "/old/kick.aif",
		NewPath: "/new/kick.aif",
	}}, extract.Options{})

	require.Len(t, p.Edits, 1)
	assert.Equal(t, "Kit2", p.Edits[0].Preset.Name)
}

func TestExplicitUnmatchedRequest(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/old/kick.aif"},
	})

	reqs := []Request{
		{Preset: AnyPreset{}, OldPath: "/nowhere/nothing.wav", NewPath: "/x.wav"},
		{Preset: NamedPreset("KitX"), OldPath: "/old/kick.aif", NewPath: "/x.aif"},
	}
	p := Explicit(c, reqs, extract.Options{})

	assert.Empty(t, p.Edits)
	require.Len(t, p.Unmatched, 2)
}

func TestFilterFor(t *testing.T) {
	t.Parallel()

	assert.True(t, FilterFor("").Matches("anything"))
	assert.True(t, FilterFor("Kit1").Matches("Kit1"))
	assert.False(t, FilterFor("Kit1").Matches("Kit2"))
}

func TestDiffRecords(t *testing.T) {
	t.Parallel()

	rec := func(preset, container, note, path string) extract.PathRecord {
		return extract.PathRecord{Preset: preset, Container: container, Note: note, Path: path}
	}

	t.Run("changed_path_yields_change", func(t *testing.T) {
		t.Parallel()
		changes, warnings, conflicts := DiffRecords(
			[]extract.PathRecord{rec("Kit1", "C4: Kick", "C4", "/old/kick.aif")},
			[]extract.PathRecord{rec("Kit1", "C4: Kick", "C4", "/new/kick.aif")},
		)
		require.Len(t, changes, 1)
		assert.Equal(t, "/old/kick.aif", changes[0].OldPath)
		assert.Equal(t, "/new/kick.aif", changes[0].NewPath)
		assert.Empty(t, warnings)
		assert.Empty(t, conflicts)
	})

	t.Run("same_path_yields_nothing", func(t *testing.T) {
		t.Parallel()
		changes, warnings, conflicts := DiffRecords(
			[]extract.PathRecord{rec("Kit1", "C4: Kick", "C4", "/a.aif")},
			[]extract.PathRecord{rec("Kit1", "C4: Kick", "C4", "/a.aif")},
		)
		assert.Empty(t, changes)
		assert.Empty(t, warnings)
		assert.Empty(t, conflicts)
	})

	t.Run("revised_only_key_warns", func(t *testing.T) {
		t.Parallel()
		changes, warnings, _ := DiffRecords(
			nil,
			[]extract.PathRecord{rec("Kit1", "E2: Tom", "E2", "/b.aif")},
		)
		assert.Empty(t, changes)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "not in baseline")
	})

	t.Run("duplicate_baseline_key_conflicts", func(t *testing.T) {
		t.Parallel()
		base := []extract.PathRecord{
			rec("Kit1", "C4: Kick", "C4", "/a.aif"),
			rec("Kit1", "C4: Kick", "C4", "/b.aif"),
		}
		changes, _, conflicts := DiffRecords(base,
			[]extract.PathRecord{rec("Kit1", "C4: Kick", "C4", "/c.aif")})
		assert.Empty(t, changes, "ambiguity must never be resolved by first-match")
		require.Len(t, conflicts, 1)
		assert.Contains(t, conflicts[0], "ambiguous key")
	})
}

func TestDiffPlansExactlyOneEdit(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/old/kick.aif"},
	})
	located := extract.Walk(c, extract.Options{})
	baseline := extract.Records(located)
	revised := []extract.PathRecord{{
		Preset: "Kit1", Container: "C4: Kick", Note: "C4", Path: "/new/kick.aif",
	}}

	p := Diff(located, baseline, revised)
	require.Len(t, p.Edits, 1)
	assert.Equal(t, "/old/kick.aif", p.Edits[0].Old)
	assert.Equal(t, "/new/kick.aif", p.Edits[0].New)
	assert.Empty(t, p.Unmatched)
	assert.Empty(t, p.Conflicts)
}

func TestDiffRevisedOnlyKeyNoEdit(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/old/kick.aif"},
	})
	located := extract.Walk(c, extract.Options{})
	baseline := extract.Records(located)
	revised := append([]extract.PathRecord{}, baseline...)
	revised = append(revised, extract.PathRecord{
		Preset: "Kit9", Container: "F1: Clap", Note: "F1", Path: "/new/clap.aif",
	})

	p := Diff(located, baseline, revised)
	assert.Empty(t, p.Edits)
	require.Len(t, p.Warnings, 1)
}

func TestDiffBaselinePathGoneFromContainer(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/current/kick.aif"},
	})
	located := extract.Walk(c, extract.Options{})

	// Baseline claims a path the container does not hold anymore.
	baseline := []extract.PathRecord{{
		Preset: "Kit1", Container: "C4: Kick", Note: "C4", Path: "/stale/kick.aif",
	}}
	revised := []extract.PathRecord{{
		Preset: "Kit1", Container: "C4: Kick", Note: "C4", Path: "/new/kick.aif",
	}}

	p := Diff(located, baseline, revised)
	assert.Empty(t, p.Edits)
	require.Len(t, p.Unmatched, 1)
	assert.Equal(t, "/stale/kick.aif", p.Unmatched[0].OldPath)
}

func TestApplyProtection(t *testing.T) {
	t.Parallel()

	c := kitLibrary(map[string][2]string{
		"Kit1": {"C4: Kick", "/factory/kick.aif"},
		"Kit2": {"D4: Snare", "/user/snare.aif"},
	})
	p := Explicit(c, []Request{
		{Preset: AnyPreset{}, OldPath: "/factory/kick.aif", NewPath: "/x/kick.aif"},
		{Preset: AnyPreset{}, OldPath: "/user/snare.aif", NewPath: "/x/snare.aif"},
	}, extract.Options{})
	require.Len(t, p.Edits, 2)

	p.ApplyProtection(NewProtectedPaths("/factory/**"))
	require.Len(t, p.Edits, 1)
	assert.Equal(t, "/user/snare.aif", p.Edits[0].Old)
	require.Len(t, p.Skipped, 1)
	assert.Equal(t, "/factory/kick.aif", p.Skipped[0].Old)
}
