package profile

import "testing"

func TestParseKey(t *testing.T) {
	cases := []struct {
		key  string
		base string
		kind SuffixKind
	}{
		{"massage_give", "massage", SuffixGive},
		{"massage_receive", "massage", SuffixReceive},
		{"stripping_self", "stripping", SuffixSelf},
		{"body_worship_watching", "body_worship", SuffixWatching},
		{"kissing", "kissing", SuffixNone},
		{"watching_strip", "strip", SuffixWatching},
		{"solo_pleasure_self", "solo_pleasure", SuffixSelf},
	}
	for _, c := range cases {
		base, kind := ParseKey(c.key)
		if base != c.base || kind != c.kind {
			t.Errorf("ParseKey(%q) = (%q, %v), want (%q, %v)", c.key, base, kind, c.base, c.kind)
		}
	}
}

func TestPairedKey(t *testing.T) {
	cases := []struct {
		key    string
		paired string
		ok     bool
	}{
		{"massage_give", "massage_receive", true},
		{"massage_receive", "massage_give", true},
		{"feet_self", "feet_watching", true},
		{"feet_watching", "feet_self", true},
		{"stripping_self", "watching_strip", true},
		{"watching_strip", "stripping_self", true},
		{"solo_pleasure_self", "watching_solo_pleasure", true},
		{"watching_solo_pleasure", "solo_pleasure_self", true},
		{"kissing", "", false},
	}
	for _, c := range cases {
		paired, ok := PairedKey(c.key)
		if paired != c.paired || ok != c.ok {
			t.Errorf("PairedKey(%q) = (%q, %v), want (%q, %v)", c.key, paired, ok, c.paired, c.ok)
		}
	}
}

func TestVirtualProfile(t *testing.T) {
	p := Virtual([]string{"vagina", "breasts"})

	if p.PowerDynamic.Orientation != Switch {
		t.Errorf("expected Switch orientation, got %v", p.PowerDynamic.Orientation)
	}
	if len(p.Activities) != 0 {
		t.Errorf("expected no activity preferences, got %d", len(p.Activities))
	}
	if len(p.Anatomy.AnatomySelf) != 2 || p.Anatomy.AnatomySelf[0] != "vagina" {
		t.Errorf("expected supplied anatomy, got %v", p.Anatomy.AnatomySelf)
	}
	if len(p.Boundaries.HardLimits) != 0 {
		t.Errorf("expected no hard limits, got %v", p.Boundaries.HardLimits)
	}
}

func TestComplementaryProfile(t *testing.T) {
	primary := &Profile{
		Activities: map[string]float64{
			"massage_give":  0.9,
			"feet_receive":  0.8,
			"kissing":       0.7,
			"stripping_self": 0.6,
		},
		PowerDynamic: PowerDynamic{Orientation: Top, Confidence: 0.9},
		Boundaries:   Boundaries{HardLimits: []string{"degradation"}},
		Anatomy: Anatomy{
			AnatomySelf: []string{"penis"},
			Preference:  []string{"vagina"},
		},
	}

	partner := Complementary(primary)

	if partner.PowerDynamic.Orientation != Bottom {
		t.Errorf("expected Bottom orientation for Top primary, got %v", partner.PowerDynamic.Orientation)
	}
	if got := partner.Activities["massage_receive"]; got != 0.9 {
		t.Errorf("expected massage_receive=0.9 (mirrored), got %f", got)
	}
	if got := partner.Activities["feet_give"]; got != 0.8 {
		t.Errorf("expected feet_give=0.8 (mirrored), got %f", got)
	}
	if got := partner.Activities["kissing"]; got != 0.7 {
		t.Errorf("expected kissing=0.7 (unchanged), got %f", got)
	}
	// Self/watching keys are not mirrored, only give/receive.
	if got := partner.Activities["stripping_self"]; got != 0.6 {
		t.Errorf("expected stripping_self=0.6 (unchanged), got %f", got)
	}
	if len(partner.Anatomy.AnatomySelf) != 1 || partner.Anatomy.AnatomySelf[0] != "vagina" {
		t.Errorf("expected partner anatomy = primary preference, got %v", partner.Anatomy.AnatomySelf)
	}
	if len(partner.Boundaries.HardLimits) != 1 || partner.Boundaries.HardLimits[0] != "degradation" {
		t.Errorf("expected primary limits copied, got %v", partner.Boundaries.HardLimits)
	}
}

func TestComplementaryOrientationInversion(t *testing.T) {
	cases := []struct {
		in, want Orientation
	}{
		{Top, Bottom},
		{Bottom, Top},
		{Switch, Switch},
		{Undefined, Switch},
	}
	for _, c := range cases {
		p := Complementary(&Profile{PowerDynamic: PowerDynamic{Orientation: c.in}})
		if p.PowerDynamic.Orientation != c.want {
			t.Errorf("Complementary(%v) orientation = %v, want %v", c.in, p.PowerDynamic.Orientation, c.want)
		}
	}
}

func TestCombinedHardLimits(t *testing.T) {
	a := &Profile{Boundaries: Boundaries{HardLimits: []string{"degradation", "feet"}}}
	b := &Profile{Boundaries: Boundaries{HardLimits: []string{"feet", "impact"}}}

	limits := CombinedHardLimits(a, b)
	if len(limits) != 3 {
		t.Errorf("expected 3 combined limits, got %d: %v", len(limits), limits)
	}
	for _, l := range []string{"degradation", "feet", "impact"} {
		if !limits[l] {
			t.Errorf("expected limit %q present", l)
		}
	}

	if got := CombinedHardLimits(nil, nil); len(got) != 0 {
		t.Errorf("expected empty limits for nil profiles, got %v", got)
	}
}
