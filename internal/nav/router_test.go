package nav

import "testing"

func TestIsProtected(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{PathHome, false},
		{PathLookup, false},
		{PathLogin, false},
		{PathDashboard, true},
		{PathVehicles, true},
		{PathNewVehicle, true},
		{PathInspection, true},
		{PathWorkshops, true},
		{"/admin", true},
		{"/administrator", false},
	}
	for _, tt := range tests {
		if got := IsProtected(tt.path); got != tt.want {
			t.Errorf("IsProtected(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRouter_NavigateAndBack(t *testing.T) {
	r := New("")
	if r.Current() != PathHome {
		t.Fatalf("expected home start, got %q", r.Current())
	}
	r.Navigate(PathLookup)
	r.Navigate(PathDashboard)
	if !r.Back() || r.Current() != PathLookup {
		t.Fatalf("expected back to lookup, got %q", r.Current())
	}
	if !r.Back() || r.Current() != PathHome {
		t.Fatalf("expected back to home, got %q", r.Current())
	}
	if r.Back() {
		t.Fatal("expected Back to report false at bottom")
	}
}

func TestRouter_RedirectReplacesEntry(t *testing.T) {
	r := New(PathHome)
	r.Navigate(PathVehicles)
	r.Redirect(PathLogin, Pending{Path: PathVehicles})

	if r.Current() != PathLogin {
		t.Fatalf("expected login, got %q", r.Current())
	}
	// Back from login skips the protected path that redirected.
	r.Back()
	if r.Current() != PathHome {
		t.Fatalf("expected home after back, got %q", r.Current())
	}
}

func TestRouter_PendingConsumedOnce(t *testing.T) {
	r := New(PathHome)
	r.Navigate(PathApprovals)
	r.Redirect(PathLogin, Pending{Path: PathApprovals})

	p, ok := r.TakePending()
	if !ok || p.Path != PathApprovals {
		t.Fatalf("expected pending %q, got %+v ok=%v", PathApprovals, p, ok)
	}
	if _, ok := r.TakePending(); ok {
		t.Fatal("pending must be consumed by the first take")
	}
}

func TestRouter_NavigationDiscardsPending(t *testing.T) {
	r := New(PathHome)
	r.Redirect(PathLogin, Pending{Path: PathDashboard})
	r.Back()
	if _, ok := r.Pending(); ok {
		t.Fatal("back must discard pending")
	}

	r.Redirect(PathLogin, Pending{Path: PathDashboard})
	r.Navigate(PathLookup)
	if _, ok := r.Pending(); ok {
		t.Fatal("navigate must discard pending")
	}
}

func TestRouter_ReplaceAfterLogin(t *testing.T) {
	r := New(PathHome)
	r.Navigate(PathVehicles)
	r.Redirect(PathLogin, Pending{Path: PathVehicles})

	p, _ := r.TakePending()
	r.Replace(p.Path)
	if r.Current() != PathVehicles {
		t.Fatalf("expected vehicles, got %q", r.Current())
	}
	// Login is not left on the back stack.
	r.Back()
	if r.Current() != PathHome {
		t.Fatalf("expected home after back, got %q", r.Current())
	}
}

func TestRouter_Reset(t *testing.T) {
	r := New(PathHome)
	r.Navigate(PathDashboard)
	r.Navigate(PathVehicles)
	r.Reset(PathHome)
	if r.Current() != PathHome || r.Back() {
		t.Fatal("reset must clear history")
	}
}
