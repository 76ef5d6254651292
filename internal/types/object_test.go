package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestObject_PreservesKeyOrder(t *testing.T) {
	var obj Object
	if err := json.Unmarshal([]byte(`{"zeta":1,"alpha":{"y":true,"b":null},"mid":[{"k2":1,"k1":2}]}`), &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	keys := obj.Keys()
	if strings.Join(keys, ",") != "zeta,alpha,mid" {
		t.Errorf("keys = %v, want [zeta alpha mid]", keys)
	}

	out, err := Marshal(&obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"zeta":1,"alpha":{"y":true,"b":null},"mid":[{"k2":1,"k1":2}]}`
	if string(out) != want {
		t.Errorf("round trip = %s, want %s", out, want)
	}
}

func TestObject_NumbersKeepLiteralText(t *testing.T) {
	v, err := DecodeValue(strings.NewReader(`{"spend":100.50,"count":3}`))
	if err != nil {
		t.Fatal(err)
	}
	obj := v.(*Object)
	spend, _ := obj.Get("spend")
	if n, ok := spend.(json.Number); !ok || n.String() != "100.50" {
		t.Errorf("spend = %#v, want json.Number(100.50)", spend)
	}
}

func TestDecodeValue_RejectsTrailingData(t *testing.T) {
	if _, err := DecodeValue(strings.NewReader(`{"a":1} {"b":2}`)); err == nil {
		t.Error("expected error for trailing data")
	}
}

func TestObject_CloneIsDeep(t *testing.T) {
	inner := NewObject()
	inner.Set("x", "1")
	orig := NewObject()
	orig.Set("inner", inner)
	orig.Set("list", []any{"a"})

	cp := orig.Clone()
	cpInner, _ := cp.Get("inner")
	cpInner.(*Object).Set("x", "changed")
	cpList, _ := cp.Get("list")
	cpList.([]any)[0] = "changed"

	if v, _ := inner.Get("x"); v != "1" {
		t.Errorf("original nested object mutated: %v", v)
	}
	list, _ := orig.Get("list")
	if list.([]any)[0] != "a" {
		t.Errorf("original list mutated: %v", list)
	}
}

func TestObjectFromMap_SortsKeys(t *testing.T) {
	obj := ObjectFromMap(map[string]any{"b": 1, "a": map[string]any{"d": 1, "c": 2}})
	if got := strings.Join(obj.Keys(), ","); got != "a,b" {
		t.Errorf("keys = %s, want a,b", got)
	}
	a, _ := obj.Get("a")
	if _, ok := a.(*Object); !ok {
		t.Errorf("nested map not converted: %T", a)
	}
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	out, err := Marshal(map[string]string{"q": "<b>&</b>"})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"q":"<b>&</b>"}` {
		t.Errorf("got %s", out)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"string", "x", true},
		{"false", false, false},
		{"zero number", json.Number("0"), false},
		{"number", json.Number("2"), true},
		{"empty object", NewObject(), false},
		{"empty array", []any{}, false},
		{"array", []any{1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truthy(tt.v); got != tt.want {
				t.Errorf("Truthy(%#v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestNewUsage(t *testing.T) {
	u := NewUsage(50, 30, 0)
	if u.TotalTokens != 80 {
		t.Errorf("total = %d, want 80", u.TotalTokens)
	}
	u = NewUsage(50, 30, 80)
	if u.TotalTokens != 80 {
		t.Errorf("total = %d, want 80", u.TotalTokens)
	}
}
