package payments

import (
	"errors"
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"cash", MethodCash, false},
		{"card", MethodCard, false},
		{" Card ", MethodCard, false},
		{"CASH", MethodCash, false},
		{"check", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMethod) {
				t.Errorf("ParseMethod(%q): expected ErrUnknownMethod, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestResolveCash(t *testing.T) {
	route, err := Resolve(MethodCash, 9500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route != RouteDirectCreate {
		t.Fatalf("cash must resolve to direct create, got %v", route)
	}
}

func TestResolveCard(t *testing.T) {
	for _, amount := range []int64{1, 500, 14050} {
		route, err := Resolve(MethodCard, amount)
		if err != nil {
			t.Fatalf("amount %d: unexpected error: %v", amount, err)
		}
		if route != RouteCheckout {
			t.Fatalf("card must resolve to checkout for any positive amount, got %v", route)
		}
	}
}

func TestResolveInvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -1, -9500} {
		for _, method := range []Method{MethodCash, MethodCard} {
			if _, err := Resolve(method, amount); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("Resolve(%s, %d): expected ErrInvalidAmount, got %v", method, amount, err)
			}
		}
	}
}

func TestResolveUnknownMethod(t *testing.T) {
	if _, err := Resolve(Method("wire"), 100); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}
