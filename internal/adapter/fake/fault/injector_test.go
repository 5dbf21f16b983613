package fault

import (
	"errors"
	"testing"
)

const testPoint = "route.add"

func TestInjectorFailOnce(t *testing.T) {
	i := NewInjector()
	injected := errors.New("injected once")
	i.FailOnce(testPoint, injected)

	if err := i.Eval(testPoint); !errors.Is(err, injected) {
		t.Fatalf("first Eval error = %v, want %v", err, injected)
	}
	if err := i.Eval(testPoint); err != nil {
		t.Fatalf("second Eval error = %v, want nil", err)
	}
}

func TestInjectorFailAlways(t *testing.T) {
	i := NewInjector()
	injected := errors.New("injected always")
	i.FailAlways(testPoint, injected)

	for n := range 3 {
		if err := i.Eval(testPoint); !errors.Is(err, injected) {
			t.Fatalf("Eval #%d error = %v, want %v", n, err, injected)
		}
	}
}

func TestInjectorHookSeesArgs(t *testing.T) {
	i := NewInjector()
	injected := errors.New("bad link")
	i.SetHook(testPoint, func(args ...any) error {
		if len(args) > 0 && args[0] == 7 {
			return injected
		}
		return nil
	})

	if err := i.Eval(testPoint, 7); !errors.Is(err, injected) {
		t.Fatalf("Eval(7) error = %v, want %v", err, injected)
	}
	if err := i.Eval(testPoint, 8); err != nil {
		t.Fatalf("Eval(8) error = %v, want nil", err)
	}
}

func TestInjectorClear(t *testing.T) {
	i := NewInjector()
	i.FailAlways("a", errors.New("one"))
	i.FailAlways("b", errors.New("two"))

	i.Clear("a")
	if err := i.Eval("a"); err != nil {
		t.Fatalf("Eval a after Clear = %v, want nil", err)
	}
	if err := i.Eval("b"); err == nil {
		t.Fatal("Eval b after clearing a = nil, want error")
	}
}

func TestNilInjectorNeverFails(t *testing.T) {
	var i *Injector
	if err := i.Eval(testPoint); err != nil {
		t.Fatalf("nil Eval = %v, want nil", err)
	}
}
