package store

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSetDeduplicatesByValue(t *testing.T) {
	s := NewSet[int]()
	for _, v := range []int{3, 1, 3, 2, 1, 3} {
		if _, err := s.Add(v); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	got := s.Snapshot()
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSetAddReportsNovelty(t *testing.T) {
	s := NewSet[string]()
	added, err := s.Add("a")
	if err != nil || !added {
		t.Fatalf("expected first add to insert, got %v %v", added, err)
	}
	added, err = s.Add("a")
	if err != nil || added {
		t.Fatalf("expected duplicate add to be ignored, got %v %v", added, err)
	}
	ok, err := s.Contains("a")
	if err != nil || !ok {
		t.Fatalf("expected set to contain a")
	}
	ok, _ = s.Contains("b")
	if ok {
		t.Fatalf("expected set not to contain b")
	}
}

func TestSetStructuralEquality(t *testing.T) {
	type point struct {
		X, Y int
		Tags []string
	}
	s := NewSet[point]()
	_, _ = s.Add(point{X: 1, Y: 2, Tags: []string{"a"}})
	added, err := s.Add(point{X: 1, Y: 2, Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added || s.Len() != 1 {
		t.Fatalf("expected structurally equal values to collapse, len=%d", s.Len())
	}
}

func TestSetRawMessageIgnoresLayout(t *testing.T) {
	s := NewSet[json.RawMessage]()
	_, _ = s.Add(json.RawMessage(`{"b":1,"a":[1,2]}`))
	added, err := s.Add(json.RawMessage(`{ "a": [1, 2], "b": 1 }`))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added {
		t.Fatalf("expected reordered object to be a duplicate")
	}
	added, _ = s.Add(json.RawMessage(`{"a":[2,1],"b":1}`))
	if !added {
		t.Fatalf("expected different array order to be a new value")
	}
}

func TestSetSnapshotIsCopy(t *testing.T) {
	s := NewSet[int]()
	if snap := s.Snapshot(); snap == nil || len(snap) != 0 {
		t.Fatalf("expected empty non-nil snapshot, got %#v", snap)
	}
	_, _ = s.Add(7)
	snap := s.Snapshot()
	snap[0] = 99
	if s.Snapshot()[0] != 7 {
		t.Fatalf("snapshot aliases set storage")
	}
}

func TestSetRejectsUnencodable(t *testing.T) {
	s := NewSet[float64]()
	if _, err := s.Add(math.NaN()); err == nil {
		t.Fatalf("expected NaN to fail encoding")
	}
	if s.Len() != 0 {
		t.Fatalf("failed add must not grow the set")
	}
}

func TestZeroSetUsable(t *testing.T) {
	var s Set[int]
	if _, err := s.Add(1); err != nil {
		t.Fatalf("add on zero set failed: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected len 1, got %d", s.Len())
	}
}

func TestSetNumberSpellings(t *testing.T) {
	cases := []struct {
		name  string
		lits  []string
		count int
	}{
		{name: "integral", lits: []string{`1`, `1.0`, `1e0`, `10e-1`, `0.1e1`, `1.000E+0`}, count: 1},
		{name: "zero", lits: []string{`0`, `-0`, `0.0`, `0e10`}, count: 1},
		{name: "fraction", lits: []string{`0.5`, `5e-1`, `0.50`, `50E-2`}, count: 1},
		{name: "large", lits: []string{`12345678901234567890123`, `1.2345678901234567890123e22`}, count: 1},
		{name: "distinct", lits: []string{`1`, `1.5`, `-1`, `"1"`, `[1]`}, count: 5},
	}
	for _, tc := range cases {
		s := NewSet[json.RawMessage]()
		for _, lit := range tc.lits {
			if _, err := s.Add(json.RawMessage(lit)); err != nil {
				t.Fatalf("%s: add %s failed: %v", tc.name, lit, err)
			}
		}
		if s.Len() != tc.count {
			t.Fatalf("%s: expected %d members, got %v", tc.name, tc.count, s.Snapshot())
		}
		if first := s.Snapshot()[0]; string(first) != tc.lits[0] {
			t.Fatalf("%s: stored value rewritten to %s", tc.name, first)
		}
	}
}

func TestSetNestedNumberSpellings(t *testing.T) {
	s := NewSet[json.RawMessage]()
	_, _ = s.Add(json.RawMessage(`{"a":[1,2.50],"b":{"c":3}}`))
	added, err := s.Add(json.RawMessage(`{"b":{"c":3.0},"a":[1e0,2.5]}`))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added {
		t.Fatalf("expected nested numbers to compare by value")
	}
}
