package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/client"
	"github.com/saulo-duarte/goal-tracker/internal/session"
)

type bootMsg struct{ state session.State }

type verifyMsg struct {
	state session.State
	err   error
}

// sessionChangedMsg is delivered after any session transition, including
// ones caused by a 401 on a background request.
type sessionChangedMsg struct{}

type loginMsg struct {
	state session.State
	err   error
}

type registerMsg struct {
	username string
	err      error
}

type logoutMsg struct{ state session.State }

type accountDeletedMsg struct {
	state session.State
	err   error
}

type dashboardMsg struct {
	data client.Dashboard
	err  error
}

// Results below carry the generation of the session that issued them and
// are dropped when that session is gone.

type goalCreatedMsg struct {
	gen  uint64
	goal *apiclient.Goal
	err  error
}

type goalDeletedMsg struct {
	gen uint64
	id  int64
	err error
}

type detailMsg struct {
	data client.GoalDetail
	err  error
}

type progressAddedMsg struct {
	gen    uint64
	goalID int64
	update *apiclient.ProgressUpdate
	err    error
}

func (a *App) bootCmd() tea.Cmd {
	return func() tea.Msg {
		return bootMsg{state: a.ctl.Boot(context.Background())}
	}
}

func (a *App) verifyCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := a.ctl.Verify(context.Background())
		return verifyMsg{state: state, err: err}
	}
}

func (a *App) listenSession() tea.Cmd {
	return func() tea.Msg {
		<-a.changes
		return sessionChangedMsg{}
	}
}

func (a *App) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		state, err := a.ctl.Login(context.Background(), username, password)
		return loginMsg{state: state, err: err}
	}
}

func (a *App) registerCmd(username, email, password string) tea.Cmd {
	return func() tea.Msg {
		err := a.ctl.Register(context.Background(), username, email, password)
		return registerMsg{username: username, err: err}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return logoutMsg{state: a.ctl.Logout(context.Background())}
	}
}

func (a *App) deleteAccountCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := a.ctl.DeleteAccount(context.Background())
		return accountDeletedMsg{state: state, err: err}
	}
}

func (a *App) dashboardCmd() tea.Cmd {
	return func() tea.Msg {
		d, err := a.ctl.LoadDashboard(context.Background())
		return dashboardMsg{data: d, err: err}
	}
}

func (a *App) createGoalCmd(in apiclient.GoalInput) tea.Cmd {
	gen := a.gen
	return func() tea.Msg {
		goal, err := a.ctl.CreateGoal(context.Background(), in)
		return goalCreatedMsg{gen: gen, goal: goal, err: err}
	}
}

func (a *App) deleteGoalCmd(id int64) tea.Cmd {
	gen := a.gen
	return func() tea.Msg {
		return goalDeletedMsg{gen: gen, id: id, err: a.ctl.DeleteGoal(context.Background(), id)}
	}
}

func (a *App) detailCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		d, err := a.ctl.GoalDetail(context.Background(), id)
		return detailMsg{data: d, err: err}
	}
}

func (a *App) addProgressCmd(goalID int64, text string) tea.Cmd {
	gen := a.gen
	return func() tea.Msg {
		update, err := a.ctl.AddProgress(context.Background(), goalID, text)
		return progressAddedMsg{gen: gen, goalID: goalID, update: update, err: err}
	}
}
