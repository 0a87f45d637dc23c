package value

import (
	"testing"
	"time"
)

func TestNullVariantsAreNull(t *testing.T) {
	nulls := []Value{
		Null(),
		NullBool(),
		NullInt64(),
		NullUint64(),
		NullFloat64(),
		NullString(),
		NullTime(),
	}
	for _, v := range nulls {
		if !v.IsNull() {
			t.Errorf("%s: expected IsNull", v.Kind())
		}
	}
}

func TestTypedNullKeepsKind(t *testing.T) {
	v := NullInt64()
	if v.Kind() != KindInt {
		t.Errorf("expected kind int, got %s", v.Kind())
	}
	if _, ok := v.Int64(); ok {
		t.Error("expected absent payload")
	}
}

func TestAllNullsCompareEqual(t *testing.T) {
	if !Null().Equal(NullString()) {
		t.Error("untyped null should equal typed null")
	}
	if !NullInt64().Equal(NullTime()) {
		t.Error("typed nulls of different kinds should compare equal")
	}
	if Null().Equal(Int64(0)) {
		t.Error("null should not equal zero")
	}
}

func TestEqualAcrossKinds(t *testing.T) {
	if Int64(5).Equal(Uint64(5)) {
		t.Error("int and uint are distinct kinds")
	}
	if Int64(5).Equal(Float64(5)) {
		t.Error("int and real are distinct kinds")
	}
	if !Int64(5).Equal(Int64(5)) {
		t.Error("equal ints should compare equal")
	}
}

func TestPseudoValuesDoNotBind(t *testing.T) {
	for _, v := range []Value{Now(), NowAdd("1 DAY")} {
		if v.IsParam() {
			t.Errorf("%s: expected non-param", v.Kind())
		}
		if _, ok := v.Arg(); ok {
			t.Errorf("%s: expected no bound argument", v.Kind())
		}
		if v.IsNull() {
			t.Errorf("%s: pseudo-value is not null", v.Kind())
		}
	}
}

func TestArgPayloads(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		v    Value
		want any
	}{
		{Bool(true), true},
		{Int64(-3), int64(-3)},
		{Uint64(7), uint64(7)},
		{Float64(1.5), 1.5},
		{String("x"), "x"},
		{Time(now), now},
		{Null(), nil},
		{NullString(), nil},
	}
	for _, tc := range cases {
		got, ok := tc.v.Arg()
		if !ok {
			t.Errorf("%s: expected bindable", tc.v.Kind())
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.v.Kind(), got, tc.want)
		}
	}
}

func TestNowAddInterval(t *testing.T) {
	v := NowAdd("30 MINUTE")
	if v.Interval() != "30 MINUTE" {
		t.Errorf("got %q", v.Interval())
	}
	if !v.Equal(NowAdd("30 MINUTE")) {
		t.Error("same interval should compare equal")
	}
	if v.Equal(NowAdd("1 DAY")) {
		t.Error("different intervals should not compare equal")
	}
}

func TestZeroValueIsUntypedNull(t *testing.T) {
	var v Value
	if v.Kind() != KindNull || !v.IsNull() {
		t.Errorf("zero value should be untyped null, got %s", v)
	}
	if v.String() != "NULL" {
		t.Errorf("got %q", v.String())
	}
}
