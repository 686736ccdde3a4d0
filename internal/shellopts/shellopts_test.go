package shellopts

import "testing"

func TestDefaults(t *testing.T) {
	tbl := New()
	if v, ok := tbl.Set("errexit"); !ok || v {
		t.Fatalf("errexit default = %v, %v; want false, true", v, ok)
	}
	if v, ok := tbl.Set("hashall"); !ok || !v {
		t.Fatalf("hashall default = %v, %v; want true, true", v, ok)
	}
}

func TestSetByShort(t *testing.T) {
	tbl := New()
	if !tbl.SetByShort('e', true) {
		t.Fatal("expected 'e' to be a known short flag")
	}
	v, _ := tbl.Set("errexit")
	if !v {
		t.Fatal("errexit should be on after SetByShort('e', true)")
	}
	if tbl.SetByShort('Q', true) {
		t.Fatal("unknown short flag should not be accepted")
	}
}

func TestShoptMutualExclusionOfCompatLevels(t *testing.T) {
	tbl := New()
	tbl.ShoptSet("compat42", true)
	tbl.ShoptSet("compat44", true)
	if v, _ := tbl.Shopt("compat42"); v {
		t.Fatal("compat42 should have been disabled by enabling compat44")
	}
	if v, _ := tbl.Shopt("compat44"); !v {
		t.Fatal("compat44 should be enabled")
	}
}

func TestAtLeastCompat(t *testing.T) {
	tbl := New()
	tbl.ShoptSet("compat44", true)
	if !tbl.AtLeastCompat("compat42") {
		t.Fatal("compat44 should satisfy AtLeastCompat(compat42)")
	}
	if tbl.AtLeastCompat("compat50") {
		t.Fatal("compat44 should not satisfy AtLeastCompat(compat50)")
	}
}

func TestUnknownNamesRejected(t *testing.T) {
	tbl := New()
	if tbl.SetByName("not-a-real-option", true) {
		t.Fatal("unknown set -o name should be rejected")
	}
	if tbl.ShoptSet("not-a-real-option", true) {
		t.Fatal("unknown shopt name should be rejected")
	}
}

func TestVersionAtLeast(t *testing.T) {
	if !VersionAtLeast("4.4") {
		t.Fatal("reported version should satisfy VersionAtLeast(4.4)")
	}
	if VersionAtLeast("9.0") {
		t.Fatal("reported version should not satisfy VersionAtLeast(9.0)")
	}
}
