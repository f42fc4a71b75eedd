package activity

import "testing"

func TestSlotStateHappyPath(t *testing.T) {
	s := NewSlotStateTracker(0)
	if s.Get() != Initialized {
		t.Fatalf("initial state = %v, want Initialized", s.Get())
	}
	if !s.Start() || s.Get() != Starting {
		t.Fatalf("Start() failed, state = %v", s.Get())
	}
	if !s.Run() || s.Get() != Running {
		t.Fatalf("Run() failed, state = %v", s.Get())
	}
	if !s.RequestStop() || s.Get() != Stopping {
		t.Fatalf("RequestStop() failed, state = %v", s.Get())
	}
	if !s.Stop() || s.Get() != Stopped {
		t.Fatalf("Stop() failed, state = %v", s.Get())
	}
	if !s.IsTerminal() {
		t.Fatalf("expected Stopped to be terminal")
	}
}

func TestSlotStateFinishedPath(t *testing.T) {
	s := NewSlotStateTracker(0)
	s.Start()
	s.Run()
	if !s.Finish() || s.Get() != Finished {
		t.Fatalf("Finish() failed, state = %v", s.Get())
	}
	if !s.Stop() || s.Get() != Stopped {
		t.Fatalf("Stop() after Finish failed, state = %v", s.Get())
	}
}

func TestSlotStateRequestStopIsIdempotentNoOp(t *testing.T) {
	s := NewSlotStateTracker(0)
	// Never started: RequestStop from Initialized must be a harmless no-op.
	if s.RequestStop() {
		t.Fatalf("RequestStop() from Initialized should fail")
	}
	if s.Get() != Initialized {
		t.Fatalf("state changed to %v after rejected RequestStop", s.Get())
	}

	s.Start()
	s.Run()
	s.RequestStop()
	s.Stop()
	// Second RequestStop after already Stopped must not panic or change state.
	if s.RequestStop() {
		t.Fatalf("RequestStop() from Stopped should fail")
	}
	if s.Get() != Stopped {
		t.Fatalf("state changed to %v after rejected RequestStop", s.Get())
	}
}

func TestSlotStateErrorFromAnyNonTerminalState(t *testing.T) {
	s := NewSlotStateTracker(0)
	s.Start()
	if !s.Error() || s.Get() != Errored {
		t.Fatalf("Error() from Starting failed, state = %v", s.Get())
	}
	if !s.IsTerminal() {
		t.Fatalf("expected Errored to be terminal")
	}
}
