package vm

import (
	"math"
	"testing"
)

func TestValueConstructorsAndPredicates(t *testing.T) {
	cases := []struct {
		name    string
		v       Value
		isNum   bool
		isBool  bool
		isNil   bool
		isObj   bool
	}{
		{"number", Number(3.5), true, false, false, false},
		{"number zero", Number(0), true, false, false, false},
		{"bool true", Bool(true), false, true, false, false},
		{"bool false", Bool(false), false, true, false, false},
		{"nil", Nil(), false, false, true, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.IsNumber(); got != c.isNum {
				t.Errorf("IsNumber() = %v, want %v", got, c.isNum)
			}
			if got := c.v.IsBool(); got != c.isBool {
				t.Errorf("IsBool() = %v, want %v", got, c.isBool)
			}
			if got := c.v.IsNil(); got != c.isNil {
				t.Errorf("IsNil() = %v, want %v", got, c.isNil)
			}
			if got := c.v.IsObj(); got != c.isObj {
				t.Errorf("IsObj() = %v, want %v", got, c.isObj)
			}
		})
	}
}

func TestValueObj(t *testing.T) {
	s := "hello"
	v := Obj(&s)
	if !v.IsObj() {
		t.Fatal("IsObj() = false, want true")
	}
	if v.IsNumber() || v.IsBool() || v.IsNil() {
		t.Fatal("Obj value misclassified as another variant")
	}
	if got := *v.AsObj(); got != "hello" {
		t.Fatalf("AsObj() = %q, want %q", got, "hello")
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 1, -1, 3.14159, 1e300, -1e-300} {
		v := Number(n)
		if !v.IsNumber() {
			t.Fatalf("Number(%v).IsNumber() = false", n)
		}
		if got := v.AsNumber(); got != n {
			t.Fatalf("AsNumber() = %v, want %v", got, n)
		}
	}
}

func TestNumberNaNIsNotEqualToItself(t *testing.T) {
	nan := Number(math.NaN())
	if nan.Equals(nan) {
		t.Fatal("NaN.Equals(NaN) = true, want false")
	}
}

func TestEqualsCrossVariantIsFalse(t *testing.T) {
	pairs := []struct{ a, b Value }{
		{Number(0), Nil()},
		{Number(0), Bool(false)},
		{Bool(false), Nil()},
		{Nil(), Bool(true)},
	}
	for _, p := range pairs {
		if p.a.Equals(p.b) {
			t.Errorf("%v.Equals(%v) = true, want false", p.a, p.b)
		}
		if p.b.Equals(p.a) {
			t.Errorf("Equals is not symmetric for %v, %v", p.a, p.b)
		}
	}
}

func TestEqualsWithinVariant(t *testing.T) {
	if !Number(2).Equals(Number(2)) {
		t.Error("Number(2).Equals(Number(2)) = false")
	}
	if Number(2).Equals(Number(3)) {
		t.Error("Number(2).Equals(Number(3)) = true")
	}
	if !Bool(true).Equals(Bool(true)) {
		t.Error("Bool(true).Equals(Bool(true)) = false")
	}
	if !Nil().Equals(Nil()) {
		t.Error("Nil().Equals(Nil()) = false")
	}
}

func TestIsFalsey(t *testing.T) {
	falsey := []Value{Nil(), Bool(false)}
	truthy := []Value{Bool(true), Number(0), Number(math.NaN())}

	for _, v := range falsey {
		if !v.IsFalsey() {
			t.Errorf("%v.IsFalsey() = false, want true", v)
		}
	}
	for _, v := range truthy {
		if v.IsFalsey() {
			t.Errorf("%v.IsFalsey() = true, want false", v)
		}
	}
}

func TestValueString(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Number(1), "1"},
		{Number(1.5), "1.5"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Nil(), "nil"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Number(1), "number"},
		{Bool(true), "boolean"},
		{Nil(), "nil"},
	}
	for _, c := range cases {
		if got := c.v.TypeName(); got != c.want {
			t.Errorf("TypeName() = %q, want %q", got, c.want)
		}
	}
}
