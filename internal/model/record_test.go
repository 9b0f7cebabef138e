package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain value", in: "Cafe A", want: "Cafe A"},
		{name: "surrounding whitespace", in: "  Main St 1 ", want: "Main St 1"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
		{name: "literal None", in: "None", want: ""},
		{name: "literal nan", in: "nan", want: ""},
		{name: "literal NaN", in: "NaN", want: ""},
		{name: "literal null", in: "null", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeField(tc.in))
		})
	}
}

func TestNormalizeFieldIdempotent(t *testing.T) {
	for _, v := range []string{"Cafe A", "  x ", "None", "nan", "", "a@b.nl"} {
		once := NormalizeField(v)
		assert.Equal(t, once, NormalizeField(once), "normalize(%q) must be idempotent", v)
	}
}

func TestRecordKey(t *testing.T) {
	r := Record{
		Name:    " Cafe A ",
		Address: "Main St 1",
		Phone:   "None",
		Website: "a.nl",
		Email:   "nan",
	}
	assert.Equal(t, CompareKey{"Cafe A", "Main St 1", "", "a.nl", ""}, r.Key())
}

func TestCompareKeyOverlap(t *testing.T) {
	base := CompareKey{"Cafe A", "Main St 1", "010", "a.nl", ""}

	tests := []struct {
		name  string
		other CompareKey
		want  int
	}{
		{name: "identical", other: base, want: 5},
		{name: "case differs", other: CompareKey{"cafe a", "MAIN ST 1", "010", "a.nl", ""}, want: 5},
		{name: "phone changed", other: CompareKey{"Cafe A", "Main St 1", "999", "a.nl", ""}, want: 4},
		{name: "all different", other: CompareKey{"X", "Y", "Z", "W", "v@v.nl"}, want: 0},
		{name: "empty fields count as equal", other: CompareKey{"X", "Y", "Z", "W", ""}, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlap(tc.other))
		})
	}
}
