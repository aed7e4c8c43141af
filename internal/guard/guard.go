// Package guard decides whether a view may be shown for a session state.
package guard

import "github.com/saulo-duarte/goal-tracker/internal/session"

type View string

const (
	ViewLogin      View = "login"
	ViewRegister   View = "register"
	ViewDashboard  View = "dashboard"
	ViewNewGoal    View = "new_goal"
	ViewGoalDetail View = "goal_detail"
)

// Public reports whether v is reachable without signing in.
func (v View) Public() bool {
	return v == ViewLogin || v == ViewRegister
}

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	// AwaitBoot means the state is not known yet; show a neutral loading
	// screen and do not redirect.
	AwaitBoot
	RedirectToDashboard
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case AwaitBoot:
		return "await_boot"
	case RedirectToDashboard:
		return "redirect_to_dashboard"
	default:
		return "unknown"
	}
}

func Evaluate(status session.Status, v View) Decision {
	switch status {
	case session.Booting:
		return AwaitBoot
	case session.Authenticated:
		if v.Public() {
			return RedirectToDashboard
		}
		return Allow
	default:
		if v.Public() {
			return Allow
		}
		return RedirectToLogin
	}
}

// Resolve returns the view to show for a request of v, and whether the
// caller should wait for boot instead of showing anything.
func Resolve(status session.Status, v View) (View, bool) {
	switch Evaluate(status, v) {
	case AwaitBoot:
		return v, true
	case RedirectToLogin:
		return ViewLogin, false
	case RedirectToDashboard:
		return ViewDashboard, false
	default:
		return v, false
	}
}
