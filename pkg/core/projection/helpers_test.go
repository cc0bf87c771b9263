package projection

import (
	"reflect"
	"testing"
)

func TestBuildArrayFromList(t *testing.T) {
	cases := []struct {
		name  string
		years int
		list  []string
		want  []float64
	}{
		{"malformed to zero", 3, []string{"1.5", "abc", ""}, []float64{1.5, 0, 0}},
		{"padded", 5, []string{"1", "2"}, []float64{1, 2, 0, 0, 0}},
		{"truncated", 2, []string{"1", "2", "3"}, []float64{1, 2}},
		{"trimmed", 2, []string{"  4.25 ", "\t-3"}, []float64{4.25, -3}},
		{"non-finite", 3, []string{"NaN", "Inf", "-Infinity"}, []float64{0, 0, 0}},
		{"nil list", 2, nil, []float64{0, 0}},
		{"suffixed text is not a number", 3, []string{"10%", "5 years", "1,5"}, []float64{0, 0, 0}},
		{"zero years", 0, []string{"1"}, []float64{}},
		{"negative years", -2, []string{"1"}, []float64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildArrayFromList(tc.years, tc.list)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBuildIndividualPercentsMap(t *testing.T) {
	got := BuildIndividualPercentsMap(3, []string{"10", "x"})
	want := map[int]float64{0: 10, 1: 0, 2: 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(BuildIndividualPercentsMap(0, []string{"1"})) != 0 {
		t.Error("expected empty map for zero years")
	}
}

func TestResizeStringArray(t *testing.T) {
	if got := ResizeStringArray([]string{"a", "b", "c"}, 2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("truncate: got %v", got)
	}
	if got := ResizeStringArray([]string{"a"}, 3); !reflect.DeepEqual(got, []string{"a", "", ""}) {
		t.Errorf("pad: got %v", got)
	}
	if got := ResizeStringArray(nil, 0); len(got) != 0 {
		t.Errorf("empty: got %v", got)
	}

	// The input must not be aliased
	in := []string{"a", "b"}
	out := ResizeStringArray(in, 2)
	out[0] = "z"
	if in[0] != "a" {
		t.Error("ResizeStringArray should not alias its input")
	}
}
