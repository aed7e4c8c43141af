// Package goalcache keeps the signed-in user's goals in memory and in step
// with the mutations made through it.
package goalcache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/session"
	"github.com/sirupsen/logrus"
)

// ErrStale is returned when the session that started an operation ended
// before its result arrived. The result has been dropped.
var ErrStale = errors.New("session changed while the request was in flight")

type API interface {
	ListGoals(ctx context.Context, userID string) ([]apiclient.Goal, error)
	GetGoal(ctx context.Context, id int64) (*apiclient.Goal, error)
	CreateGoal(ctx context.Context, in apiclient.GoalInput) (*apiclient.Goal, error)
	UpdateGoal(ctx context.Context, id int64, in apiclient.GoalInput) (*apiclient.Goal, error)
	DeleteGoal(ctx context.Context, id int64) error
	AddProgress(ctx context.Context, goalID int64, text string) (*apiclient.ProgressUpdate, error)
	ListProgress(ctx context.Context, goalID int64) ([]apiclient.ProgressUpdate, error)
}

type Session interface {
	Snapshot() session.State
	Generation() uint64
}

type patch func([]apiclient.Goal) []apiclient.Goal

type journalEntry struct {
	seq   uint64
	apply patch
}

// Cache applies every mutation as a direct patch, in the order the server
// acknowledged them. A refresh replaces the list with the server's and then
// replays the patches committed while it was in flight, so a slow list
// response can neither drop a new goal nor bring back a deleted one.
type Cache struct {
	api  API
	sess Session

	mu         sync.Mutex
	goals      []apiclient.Goal
	generation uint64
	loaded     bool
	seq        uint64
	baseline   uint64
	journal    []journalEntry
	inflight   map[uint64]int
}

func New(api API, sess Session) *Cache {
	return &Cache{
		api:      api,
		sess:     sess,
		inflight: make(map[uint64]int),
	}
}

// List returns the goals in server order. It is empty when the cache holds
// nothing for the current session.
func (c *Cache) List() []apiclient.Goal {
	gen := c.sess.Generation()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return []apiclient.Goal{}
	}
	out := make([]apiclient.Goal, len(c.goals))
	copy(out, c.goals)
	return out
}

// Loaded reports whether a refresh has completed for the current session.
func (c *Cache) Loaded() bool {
	gen := c.sess.Generation()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen && c.loaded
}

func (c *Cache) Get(id int64) (apiclient.Goal, bool) {
	for _, g := range c.List() {
		if g.ID == id {
			return g, true
		}
	}
	return apiclient.Goal{}, false
}

// Refresh replaces the cache with the server's list. A result that lost the
// race to a newer refresh is dropped and the current list returned instead.
func (c *Cache) Refresh(ctx context.Context) ([]apiclient.Goal, error) {
	snap := c.sess.Snapshot()
	if !snap.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	log := config.WithContext(ctx).WithFields(logrus.Fields{
		"session": snap.ID.String(),
		"user_id": snap.Credential.UserID,
	})

	c.mu.Lock()
	start := c.seq
	c.inflight[start]++
	c.mu.Unlock()

	goals, err := c.api.ListGoals(ctx, snap.Credential.UserID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[start]--
	if c.inflight[start] == 0 {
		delete(c.inflight, start)
	}
	defer c.trimLocked()

	if err != nil {
		log.WithError(err).Warn("Failed to refresh goals")
		return nil, err
	}
	if c.sess.Generation() != snap.Generation {
		log.Debug("Dropping goal list from an ended session")
		return nil, ErrStale
	}
	if c.generation == snap.Generation && c.loaded && c.baseline > start {
		log.Debug("Dropping goal list superseded by a newer refresh")
		return c.copyLocked(), nil
	}

	next := make([]apiclient.Goal, len(goals))
	copy(next, goals)
	replayed := 0
	if c.generation == snap.Generation {
		for _, e := range c.journal {
			if e.seq > start {
				next = e.apply(next)
				replayed++
			}
		}
	}
	if replayed > 0 {
		log.WithField("replayed", replayed).Debug("Reapplied goal changes made during refresh")
	}

	c.goals = next
	c.generation = snap.Generation
	c.loaded = true
	c.baseline = start
	return c.copyLocked(), nil
}

// Create returns the new goal once it is part of the cache.
func (c *Cache) Create(ctx context.Context, in apiclient.GoalInput) (*apiclient.Goal, error) {
	snap := c.sess.Snapshot()
	if !snap.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	goal, err := c.api.CreateGoal(ctx, in)
	if err != nil {
		return nil, err
	}
	g := *goal
	if err := c.commit(snap.Generation, upsert(g)); err != nil {
		return nil, err
	}
	config.WithContext(ctx).WithField("goal_id", g.ID).Info("Goal created")
	return &g, nil
}

func (c *Cache) Update(ctx context.Context, id int64, in apiclient.GoalInput) (*apiclient.Goal, error) {
	snap := c.sess.Snapshot()
	if !snap.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	goal, err := c.api.UpdateGoal(ctx, id, in)
	if err != nil {
		return nil, err
	}
	g := *goal
	if err := c.commit(snap.Generation, replace(g)); err != nil {
		return nil, err
	}
	return &g, nil
}

// Delete removes the goal after the server confirms. A goal the server no
// longer knows and the cache does not hold is treated as already deleted.
func (c *Cache) Delete(ctx context.Context, id int64) error {
	snap := c.sess.Snapshot()
	if !snap.Authenticated() {
		return session.ErrNotAuthenticated
	}
	err := c.api.DeleteGoal(ctx, id)
	if err != nil && !errors.Is(err, apiclient.ErrNotFound) {
		return err
	}
	if errors.Is(err, apiclient.ErrNotFound) {
		if _, held := c.Get(id); !held {
			return nil
		}
	}
	if cerr := c.commit(snap.Generation, remove(id)); cerr != nil {
		return cerr
	}
	if err != nil {
		return err
	}
	config.WithContext(ctx).WithField("goal_id", id).Info("Goal deleted")
	return nil
}

// AddProgress posts a progress note and patches the goal with the percentage
// the server computed from it.
func (c *Cache) AddProgress(ctx context.Context, goalID int64, text string) (*apiclient.ProgressUpdate, error) {
	snap := c.sess.Snapshot()
	if !snap.Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	update, err := c.api.AddProgress(ctx, goalID, text)
	if err != nil {
		return nil, err
	}

	var p patch
	if update != nil {
		p = setProgress(goalID, update.Progress)
	} else {
		goal, err := c.api.GetGoal(ctx, goalID)
		if err != nil {
			config.WithContext(ctx).WithError(err).Warn("Progress saved but goal could not be reloaded")
			if _, rerr := c.Refresh(ctx); rerr != nil {
				return nil, fmt.Errorf("progress saved but goal reload failed: %w", err)
			}
			return nil, nil
		}
		p = replace(*goal)
	}
	if err := c.commit(snap.Generation, p); err != nil {
		return nil, err
	}
	return update, nil
}

// Progress lists a goal's updates, newest first. History is not cached.
func (c *Cache) Progress(ctx context.Context, goalID int64) ([]apiclient.ProgressUpdate, error) {
	if !c.sess.Snapshot().Authenticated() {
		return nil, session.ErrNotAuthenticated
	}
	return c.api.ListProgress(ctx, goalID)
}

// commit applies p for session generation gen. The first mutation of a new
// session starts an empty cache for it.
func (c *Cache) commit(gen uint64, p patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.Generation() != gen {
		return ErrStale
	}
	if c.generation != gen {
		c.goals = nil
		c.generation = gen
		c.loaded = false
		c.journal = nil
	}
	c.seq++
	c.goals = p(c.goals)
	if len(c.inflight) > 0 {
		c.journal = append(c.journal, journalEntry{seq: c.seq, apply: p})
	}
	return nil
}

// trimLocked drops journal entries no in-flight refresh can still need.
func (c *Cache) trimLocked() {
	if len(c.inflight) == 0 {
		c.journal = nil
		return
	}
	oldest := c.seq
	for start := range c.inflight {
		if start < oldest {
			oldest = start
		}
	}
	kept := c.journal[:0]
	for _, e := range c.journal {
		if e.seq > oldest {
			kept = append(kept, e)
		}
	}
	c.journal = kept
}

func (c *Cache) copyLocked() []apiclient.Goal {
	out := make([]apiclient.Goal, len(c.goals))
	copy(out, c.goals)
	return out
}

func upsert(g apiclient.Goal) patch {
	return func(goals []apiclient.Goal) []apiclient.Goal {
		for i := range goals {
			if goals[i].ID == g.ID {
				goals[i] = g
				return goals
			}
		}
		return append(goals, g)
	}
}

func replace(g apiclient.Goal) patch {
	return func(goals []apiclient.Goal) []apiclient.Goal {
		for i := range goals {
			if goals[i].ID == g.ID {
				goals[i] = g
			}
		}
		return goals
	}
}

func remove(id int64) patch {
	return func(goals []apiclient.Goal) []apiclient.Goal {
		kept := goals[:0]
		for _, g := range goals {
			if g.ID != id {
				kept = append(kept, g)
			}
		}
		return kept
	}
}

func setProgress(id int64, progress float64) patch {
	return func(goals []apiclient.Goal) []apiclient.Goal {
		for i := range goals {
			if goals[i].ID == id {
				goals[i].Progress = progress
			}
		}
		return goals
	}
}
