package seedtree

import "testing"

func TestParsePathBasic(t *testing.T) {
	p, err := ParsePath("/symbols/2330^book$reload")
	if err != nil {
		t.Fatalf("ParsePath error: %v", err)
	}
	if len(p.Segments) != 1 || p.Segments[0] != "symbols" {
		t.Fatalf("Segments = %v, want [symbols]", p.Segments)
	}
	if p.Key != "2330" || !p.HasKey {
		t.Fatalf("Key = %q hasKey=%v, want 2330/true", p.Key, p.HasKey)
	}
	if p.TabName != "book" {
		t.Fatalf("TabName = %q, want book", p.TabName)
	}
	if p.Cmd != "reload" || !p.HasCmd {
		t.Fatalf("Cmd = %q, want reload", p.Cmd)
	}
}

func TestParsePathTreeLevelNoKey(t *testing.T) {
	p, err := ParsePath("/fileimport")
	if err != nil {
		t.Fatalf("ParsePath error: %v", err)
	}
	if p.HasKey {
		t.Fatalf("tree-level path should have no key")
	}
}

func TestParsePathQuotedKeyWithSlash(t *testing.T) {
	p, err := ParsePath(`/symbols/'A/B'^info`)
	if err != nil {
		t.Fatalf("ParsePath error: %v", err)
	}
	if p.Key != "A/B" {
		t.Fatalf("Key = %q, want A/B", p.Key)
	}
}

func TestParseSetValuesCommaSeparated(t *testing.T) {
	sets, err := ParseSetValues("Mon=A,Sch=0 9 * * *")
	if err != nil {
		t.Fatalf("ParseSetValues error: %v", err)
	}
	if len(sets) != 2 || sets[0].Field != "Mon" || sets[0].Value != "A" {
		t.Fatalf("sets = %+v", sets)
	}
	if sets[1].Field != "Sch" || sets[1].Value != "0 9 * * *" {
		t.Fatalf("sets[1] = %+v", sets[1])
	}
}

func TestParseSetValuesMissingEquals(t *testing.T) {
	_, err := ParseSetValues("Mon")
	if err == nil || err.Kind != BadCommandArgument {
		t.Fatalf("expected bad_command_argument, got %v", err)
	}
}
