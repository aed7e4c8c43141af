// Package client coordinates the session, the goal cache and suggestions
// behind the operations a user interface performs.
package client

import (
	"context"
	"errors"

	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/credential"
	"github.com/saulo-duarte/goal-tracker/internal/goalcache"
	"github.com/saulo-duarte/goal-tracker/internal/guard"
	"github.com/saulo-duarte/goal-tracker/internal/session"
	"github.com/saulo-duarte/goal-tracker/internal/suggestion"
	"golang.org/x/sync/errgroup"
)

type Gateway interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (*credential.Credential, error)
	GetGoal(ctx context.Context, id int64) (*apiclient.Goal, error)
	UpdateAccount(ctx context.Context, in apiclient.AccountUpdate) (*apiclient.User, error)
	DeleteAccount(ctx context.Context) error
}

// Dashboard is everything the main view shows. Generation names the session
// the data was loaded for.
type Dashboard struct {
	Generation  uint64
	Username    string
	Goals       []apiclient.Goal
	Suggestions []string
}

type GoalDetail struct {
	Generation uint64
	Goal       apiclient.Goal
	Updates    []apiclient.ProgressUpdate
}

type Controller struct {
	api         Gateway
	session     *session.Manager
	goals       *goalcache.Cache
	suggestions *suggestion.Fetcher
}

func NewController(api Gateway, mgr *session.Manager, goals *goalcache.Cache, suggestions *suggestion.Fetcher) *Controller {
	return &Controller{api: api, session: mgr, goals: goals, suggestions: suggestions}
}

func (c *Controller) Session() session.State {
	return c.session.Snapshot()
}

// Subscribe forwards session transitions to fn.
func (c *Controller) Subscribe(fn func(session.State)) func() {
	return c.session.Subscribe(fn)
}

// Navigate runs a view request through the route guard.
func (c *Controller) Navigate(v guard.View) (guard.View, bool) {
	return guard.Resolve(c.session.Snapshot().Status, v)
}

// Current reports whether gen is still the live session.
func (c *Controller) Current(gen uint64) bool {
	return c.session.Generation() == gen
}

func (c *Controller) Boot(ctx context.Context) session.State {
	return c.session.Boot(ctx)
}

// Verify checks the stored credential with the server. Only an explicit
// rejection ends the session.
func (c *Controller) Verify(ctx context.Context) (session.State, error) {
	return c.session.Verify(ctx)
}

func (c *Controller) Login(ctx context.Context, username, password string) (session.State, error) {
	cred, err := c.api.Login(ctx, username, password)
	if err != nil {
		return c.session.Snapshot(), err
	}
	return c.session.Login(*cred)
}

func (c *Controller) Register(ctx context.Context, username, email, password string) error {
	return c.api.Register(ctx, username, email, password)
}

func (c *Controller) Logout(ctx context.Context) session.State {
	return c.session.Logout(ctx)
}

// UpdateAccount changes the signed-in user's details. A new username is
// stored with the credential, which starts a new session generation.
func (c *Controller) UpdateAccount(ctx context.Context, in apiclient.AccountUpdate) (*apiclient.User, error) {
	snap := c.session.Snapshot()
	if !snap.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	u, err := c.api.UpdateAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	if u.Username != "" && u.Username != snap.Credential.Username && c.Current(snap.Generation) {
		cred := *snap.Credential
		cred.Username = u.Username
		if _, err := c.session.Login(cred); err != nil {
			return u, err
		}
	}
	return u, nil
}

// DeleteAccount removes the account on the server and then signs out
// locally. A failed delete leaves the session untouched.
func (c *Controller) DeleteAccount(ctx context.Context) (session.State, error) {
	snap := c.session.Snapshot()
	if !snap.Authenticated() {
		return snap, session.ErrNotAuthenticated
	}
	if err := c.api.DeleteAccount(ctx); err != nil {
		return c.session.Snapshot(), err
	}
	return c.session.Logout(ctx), nil
}

// LoadDashboard refreshes goals and suggestions concurrently. Suggestions
// always resolve; a goal failure is returned with the suggestions still set.
func (c *Controller) LoadDashboard(ctx context.Context) (Dashboard, error) {
	snap := c.session.Snapshot()
	if !snap.Authenticated() {
		return Dashboard{Generation: snap.Generation}, session.ErrNotAuthenticated
	}
	d := Dashboard{Generation: snap.Generation, Username: snap.Credential.Username}

	var g errgroup.Group
	g.Go(func() error {
		goals, err := c.goals.Refresh(ctx)
		if err != nil {
			return err
		}
		d.Goals = goals
		return nil
	})
	g.Go(func() error {
		d.Suggestions = c.suggestions.Fetch(ctx, snap.Credential.UserID)
		return nil
	})
	err := g.Wait()

	if !c.Current(snap.Generation) {
		return d, goalcache.ErrStale
	}
	if err != nil && !errors.Is(err, goalcache.ErrStale) {
		d.Goals = c.goals.List()
		return d, err
	}
	return d, nil
}

func (c *Controller) Goals() []apiclient.Goal {
	return c.goals.List()
}

func (c *Controller) CreateGoal(ctx context.Context, in apiclient.GoalInput) (*apiclient.Goal, error) {
	return c.goals.Create(ctx, in)
}

func (c *Controller) UpdateGoal(ctx context.Context, id int64, in apiclient.GoalInput) (*apiclient.Goal, error) {
	return c.goals.Update(ctx, id, in)
}

func (c *Controller) DeleteGoal(ctx context.Context, id int64) error {
	return c.goals.Delete(ctx, id)
}

// GoalDetail loads a goal and its progress history. The cached copy is used
// when present.
func (c *Controller) GoalDetail(ctx context.Context, id int64) (GoalDetail, error) {
	gen := c.session.Generation()
	d := GoalDetail{Generation: gen}

	var g errgroup.Group
	g.Go(func() error {
		if cached, ok := c.goals.Get(id); ok {
			d.Goal = cached
			return nil
		}
		goal, err := c.api.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		d.Goal = *goal
		return nil
	})
	g.Go(func() error {
		updates, err := c.goals.Progress(ctx, id)
		if err != nil {
			return err
		}
		d.Updates = updates
		return nil
	})
	if err := g.Wait(); err != nil {
		return d, err
	}
	if !c.Current(gen) {
		return d, goalcache.ErrStale
	}
	return d, nil
}

func (c *Controller) AddProgress(ctx context.Context, goalID int64, text string) (*apiclient.ProgressUpdate, error) {
	return c.goals.AddProgress(ctx, goalID, text)
}
