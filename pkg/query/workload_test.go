package query

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testRender(t *Type, args []string) []byte {
	return []byte(fmt.Sprintf("%d:%s", t.ID, strings.Join(args, ",")))
}

func TestWorkloadInstanceModIndexing(t *testing.T) {
	typ := &Type{
		ID:    1,
		Name:  "term",
		Lists: [][]string{{"a", "b", "c"}},
		Limit: 10,
	}
	w, err := NewWorkload([]*Type{typ}, testRender)
	if err != nil {
		t.Fatal(err)
	}

	wantArgs := []string{"a", "b", "c", "a", "b", "c", "a"}
	for i, want := range wantArgs {
		inst := w.Instance(typ, i)
		if inst.Args[0] != want {
			t.Errorf("iteration %d: got arg %q, want %q", i, inst.Args[0], want)
		}
		if inst.Index != i {
			t.Errorf("iteration %d: got index %d", i, inst.Index)
		}
	}
}

func TestWorkloadInstanceMultipleLists(t *testing.T) {
	typ := &Type{
		ID:    3,
		Name:  "complex",
		Lists: [][]string{{"a", "b"}, {"x", "y", "z"}},
		Limit: 20,
	}
	w, err := NewWorkload([]*Type{typ}, testRender)
	if err != nil {
		t.Fatal(err)
	}

	inst := w.Instance(typ, 5)
	want := []string{"b", "z"}
	if diff := cmp.Diff(want, inst.Args); diff != "" {
		t.Errorf("unexpected args (-want +got):\n%s", diff)
	}
	if got := string(inst.Payload); got != "3:b,z" {
		t.Errorf("got payload %q", got)
	}
}

func TestWorkloadDeterministic(t *testing.T) {
	types := DefaultTypes()
	w1, err := NewWorkload(types, testRender)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := NewWorkload(DefaultTypes(), testRender)
	if err != nil {
		t.Fatal(err)
	}

	for _, typ := range types {
		for i := 0; i < 25; i++ {
			a := w1.Instance(typ, i)
			b := w2.Instance(typ, i)
			if !bytes.Equal(a.Payload, b.Payload) {
				t.Fatalf("type %d iteration %d: payloads differ: %q vs %q", typ.ID, i, a.Payload, b.Payload)
			}
		}
	}
}

func TestNewWorkloadEmptyListFails(t *testing.T) {
	typ := &Type{ID: 1, Name: "broken", Lists: [][]string{{}}}
	_, err := NewWorkload([]*Type{typ}, testRender)
	if err == nil {
		t.Fatal("expected configuration error for empty substitution list")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the query type: %v", err)
	}
}

func TestNewWorkloadNoTypesFails(t *testing.T) {
	if _, err := NewWorkload(nil, testRender); err == nil {
		t.Fatal("expected error for empty workload")
	}
}

func TestParityReport(t *testing.T) {
	a := map[int]TemplateTraits{
		1: {OrderedByScore: true},
		2: {OrderedByScore: false},
		3: {OrderedByScore: true, OptionalClauses: true},
	}
	b := map[int]TemplateTraits{
		1: {OrderedByScore: true},
		2: {OrderedByScore: true},
		3: {OrderedByScore: true, OptionalClauses: true},
	}

	report := ParityReport("sql", a, "http", b)
	if len(report) != 1 {
		t.Fatalf("got %d divergences, want 1: %v", len(report), report)
	}
	if !strings.Contains(report[0], "query type 2") {
		t.Errorf("divergence should name query type 2: %s", report[0])
	}

	if got := ParityReport("sql", a, "sql2", a); len(got) != 0 {
		t.Errorf("identical traits should produce an empty report, got %v", got)
	}
}

func TestParityReportMissingType(t *testing.T) {
	a := map[int]TemplateTraits{1: {}, 2: {}}
	b := map[int]TemplateTraits{1: {}}
	report := ParityReport("sql", a, "http", b)
	if len(report) != 1 || !strings.Contains(report[0], "not http") {
		t.Fatalf("got %v", report)
	}
}
