package observability

import (
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	l := NoopLocateHooks{}
	l.OnLocate("space", 3, 0xf, time.Microsecond)

	g := NoopGraphHooks{}
	g.OnSpaceCreated("offset")
	g.OnSpaceDestroyed("offset")
	g.OnBind("hmd", false)
	g.OnRefSpaceUsage("local", true)
	g.OnRecenter(time.Millisecond, errors.New("no view"))
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Locate().(NoopLocateHooks); !ok {
		t.Error("Locate() should return NoopLocateHooks by default")
	}
	if _, ok := Graph().(NoopGraphHooks); !ok {
		t.Error("Graph() should return NoopGraphHooks by default")
	}

	// Set custom hooks
	customLocate := &testLocateHooks{}
	SetLocateHooks(customLocate)
	if Locate() != customLocate {
		t.Error("SetLocateHooks should set custom hooks")
	}

	customGraph := &testGraphHooks{}
	SetGraphHooks(customGraph)
	if Graph() != customGraph {
		t.Error("SetGraphHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Locate().(NoopLocateHooks); !ok {
		t.Error("Reset() should restore NoopLocateHooks")
	}
	if _, ok := Graph().(NoopGraphHooks); !ok {
		t.Error("Reset() should restore NoopGraphHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLocateHooks{}
	SetLocateHooks(custom)

	// Setting nil should be ignored
	SetLocateHooks(nil)

	if Locate() != custom {
		t.Error("SetLocateHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testLocateHooks struct{ NoopLocateHooks }
type testGraphHooks struct{ NoopGraphHooks }
