// Package tui is the terminal front end of the goal tracker, built on
// bubbletea. Every screen change goes through the route guard, and results
// of background requests are dropped once the session that issued them has
// ended.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/client"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/goalcache"
	"github.com/saulo-duarte/goal-tracker/internal/guard"
	"github.com/saulo-duarte/goal-tracker/internal/session"
	util "github.com/saulo-duarte/goal-tracker/internal/utils"
)

// Controller is what the screens need from the client layer.
type Controller interface {
	Boot(ctx context.Context) session.State
	Verify(ctx context.Context) (session.State, error)
	Session() session.State
	Subscribe(fn func(session.State)) func()
	Navigate(v guard.View) (guard.View, bool)
	Current(gen uint64) bool

	Login(ctx context.Context, username, password string) (session.State, error)
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) session.State
	DeleteAccount(ctx context.Context) (session.State, error)

	LoadDashboard(ctx context.Context) (client.Dashboard, error)
	Goals() []apiclient.Goal
	CreateGoal(ctx context.Context, in apiclient.GoalInput) (*apiclient.Goal, error)
	DeleteGoal(ctx context.Context, id int64) error
	GoalDetail(ctx context.Context, id int64) (client.GoalDetail, error)
	AddProgress(ctx context.Context, goalID int64, text string) (*apiclient.ProgressUpdate, error)
}

type Option func(*App)

// WithVerify makes the app confirm a stored credential with the server after
// boot.
func WithVerify(verify bool) Option {
	return func(a *App) {
		a.verify = verify
	}
}

// App is the root bubbletea model.
type App struct {
	ctl     Controller
	verify  bool
	changes chan struct{}
	stop    func()

	booted  bool
	view    guard.View
	gen     uint64
	spinner spinner.Model
	loading bool

	loginForm    form
	registerForm form
	goalForm     form
	progressForm form
	category     int

	username    string
	goals       []apiclient.Goal
	suggestions []string
	cursor      int
	confirmID   int64

	// confirmAccount is set while an account deletion awaits y/n.
	confirmAccount bool

	detail    *client.GoalDetail
	detailErr string

	status string
	err    string

	width  int
	height int
}

func NewApp(ctl Controller, opts ...Option) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))

	a := &App{
		ctl:     ctl,
		changes: make(chan struct{}, 1),
		view:    guard.ViewDashboard,
		spinner: sp,
		loginForm: newForm(
			field{label: "Username", placeholder: "alice"},
			field{label: "Password", placeholder: "password", secret: true},
		),
		registerForm: newForm(
			field{label: "Username", placeholder: "alice"},
			field{label: "Email", placeholder: "alice@example.com"},
			field{label: "Password", placeholder: "password", secret: true},
			field{label: "Confirm password", placeholder: "password", secret: true},
		),
		goalForm: newForm(
			field{label: "Description", placeholder: "Run 5k", limit: 200},
			field{label: "Target date", placeholder: util.DateLayout, limit: 10},
		),
		progressForm: newForm(
			field{label: "Progress update", placeholder: "What did you do today?", limit: 500},
		),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.stop = ctl.Subscribe(func(session.State) {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	return a
}

// Close detaches the app from session notifications.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.bootCmd(), a.listenSession())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case bootMsg:
		a.booted = true
		a.gen = msg.state.Generation
		cmds := []tea.Cmd{a.navigate(a.view)}
		if a.verify && msg.state.Authenticated() {
			cmds = append(cmds, a.verifyCmd())
		}
		return a, tea.Batch(cmds...)

	case verifyMsg:
		if msg.err != nil && !errors.Is(msg.err, apiclient.ErrAuth) {
			a.status = "Offline: showing your saved session"
		}
		return a, nil

	case sessionChangedMsg:
		return a, tea.Batch(a.syncSession(), a.listenSession())

	case loginMsg:
		a.loading = false
		if msg.err != nil {
			a.err = apiclient.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.loginForm.reset()
		a.gen = msg.state.Generation
		if !a.view.Public() {
			// The session notification got here first and already moved on.
			return a, nil
		}
		return a, a.navigate(guard.ViewDashboard)

	case registerMsg:
		a.loading = false
		if msg.err != nil {
			a.err = apiclient.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.registerForm.reset()
		a.loginForm.reset()
		a.loginForm.inputs[0].SetValue(msg.username)
		a.loginForm.move(1)
		a.status = "Registration successful. Please log in."
		return a, a.navigate(guard.ViewLogin)

	case logoutMsg:
		a.gen = msg.state.Generation
		a.clearSessionData()
		a.status = "Logged out"
		return a, a.navigate(guard.ViewLogin)

	case accountDeletedMsg:
		a.loading = false
		if msg.err != nil {
			a.err = apiclient.Message(msg.err)
			return a, nil
		}
		a.gen = msg.state.Generation
		a.clearSessionData()
		a.err = ""
		a.status = "Account deleted"
		return a, a.navigate(guard.ViewLogin)

	case dashboardMsg:
		return a, a.handleDashboard(msg)

	case goalCreatedMsg:
		if !a.ctl.Current(msg.gen) {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			a.err = apiclient.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.goals = a.ctl.Goals()
		a.goalForm.reset()
		a.status = fmt.Sprintf("Goal %q created", msg.goal.Description)
		a.view = guard.ViewDashboard
		return a, nil

	case goalDeletedMsg:
		if !a.ctl.Current(msg.gen) {
			return a, nil
		}
		a.loading = false
		a.goals = a.ctl.Goals()
		if a.cursor >= len(a.goals) && a.cursor > 0 {
			a.cursor = len(a.goals) - 1
		}
		if msg.err != nil {
			a.err = apiclient.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.status = "Goal deleted"
		if a.view == guard.ViewGoalDetail {
			a.detail = nil
			return a, a.navigate(guard.ViewDashboard)
		}
		return a, nil

	case detailMsg:
		if !a.ctl.Current(msg.data.Generation) {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			a.detailErr = apiclient.Message(msg.err)
			return a, nil
		}
		d := msg.data
		a.detail = &d
		a.detailErr = ""
		return a, nil

	case progressAddedMsg:
		if !a.ctl.Current(msg.gen) {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			a.err = apiclient.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.progressForm.reset()
		a.goals = a.ctl.Goals()
		if msg.update != nil && msg.update.Analysis != "" {
			a.status = msg.update.Analysis
		} else {
			a.status = "Progress saved"
		}
		return a, a.detailCmd(msg.goalID)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.booted {
			return a, nil
		}
		return a, a.handleKey(msg)
	}
	return a, nil
}

// navigate asks the guard for v and switches to whatever it allows.
func (a *App) navigate(v guard.View) tea.Cmd {
	target, wait := a.ctl.Navigate(v)
	if wait {
		a.booted = false
		a.view = v
		return nil
	}
	prev := a.view
	a.view = target
	switch target {
	case guard.ViewDashboard:
		a.confirmID = 0
		if prev != guard.ViewDashboard || a.goals == nil {
			a.loading = true
			return a.dashboardCmd()
		}
	case guard.ViewLogin:
		return a.loginForm.inputs[a.loginForm.focus].Focus()
	case guard.ViewRegister:
		return a.registerForm.inputs[a.registerForm.focus].Focus()
	case guard.ViewNewGoal:
		a.category = 0
		return a.goalForm.reset()
	}
	return nil
}

// syncSession reacts to a transition made elsewhere, typically a 401 that
// signed the user out in the middle of a request.
func (a *App) syncSession() tea.Cmd {
	state := a.ctl.Session()
	if state.Generation == a.gen {
		return nil
	}
	a.gen = state.Generation
	a.loading = false
	if !state.Authenticated() {
		a.clearSessionData()
		if !a.view.Public() {
			config.WithContext(context.Background()).Info("Session ended; returning to login")
			a.err = "Your session has expired. Please log in again."
		}
	}
	return a.navigate(a.view)
}

func (a *App) clearSessionData() {
	a.username = ""
	a.goals = nil
	a.suggestions = nil
	a.cursor = 0
	a.confirmID = 0
	a.confirmAccount = false
	a.detail = nil
	a.detailErr = ""
}

func (a *App) handleDashboard(msg dashboardMsg) tea.Cmd {
	if errors.Is(msg.err, goalcache.ErrStale) || !a.ctl.Current(msg.data.Generation) {
		return nil
	}
	a.loading = false
	a.username = msg.data.Username
	a.suggestions = msg.data.Suggestions
	a.goals = msg.data.Goals
	if a.goals == nil {
		a.goals = []apiclient.Goal{}
	}
	if a.cursor >= len(a.goals) {
		a.cursor = 0
	}
	if msg.err != nil {
		a.err = apiclient.Message(msg.err)
	} else {
		a.err = ""
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch a.view {
	case guard.ViewLogin:
		return a.loginKey(msg)
	case guard.ViewRegister:
		return a.registerKey(msg)
	case guard.ViewDashboard:
		return a.dashboardKey(msg)
	case guard.ViewNewGoal:
		return a.newGoalKey(msg)
	case guard.ViewGoalDetail:
		return a.detailKey(msg)
	}
	return nil
}

func (a *App) loginKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return tea.Quit
	case "ctrl+r":
		a.err, a.status = "", ""
		return a.navigate(guard.ViewRegister)
	case "tab", "down":
		return a.loginForm.move(1)
	case "shift+tab", "up":
		return a.loginForm.move(-1)
	case "enter":
		if a.loading {
			return nil
		}
		if !a.loginForm.onLast() {
			return a.loginForm.move(1)
		}
		username, password := a.loginForm.value(0), a.loginForm.raw(1)
		if username == "" || password == "" {
			a.err = "Please fill in all fields"
			return nil
		}
		a.loading = true
		a.err, a.status = "", ""
		return tea.Batch(a.spinner.Tick, a.loginCmd(username, password))
	}
	return a.loginForm.update(msg)
}

func (a *App) registerKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.err = ""
		return a.navigate(guard.ViewLogin)
	case "tab", "down":
		return a.registerForm.move(1)
	case "shift+tab", "up":
		return a.registerForm.move(-1)
	case "enter":
		if a.loading {
			return nil
		}
		if !a.registerForm.onLast() {
			return a.registerForm.move(1)
		}
		f := &a.registerForm
		username, email, password, confirm := f.value(0), f.value(1), f.raw(2), f.raw(3)
		switch {
		case username == "" || email == "" || password == "":
			a.err = "Please fill in all fields"
			return nil
		case !strings.Contains(email, "@"):
			a.err = "Please enter a valid email address"
			return nil
		case password != confirm:
			a.err = "Passwords do not match"
			return nil
		}
		a.loading = true
		a.err = ""
		return tea.Batch(a.spinner.Tick, a.registerCmd(username, email, password))
	}
	return a.registerForm.update(msg)
}

func (a *App) dashboardKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if a.confirmID != 0 {
		return a.answerDelete(key)
	}
	if a.confirmAccount {
		a.confirmAccount = false
		if key == "y" {
			a.loading = true
			a.status = ""
			return tea.Batch(a.spinner.Tick, a.deleteAccountCmd())
		}
		a.status = "Account deletion cancelled"
		return nil
	}

	switch key {
	case "q":
		return tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.goals)-1 {
			a.cursor++
		}
	case "r":
		a.loading = true
		a.status = ""
		return tea.Batch(a.spinner.Tick, a.dashboardCmd())
	case "n":
		a.err, a.status = "", ""
		return a.navigate(guard.ViewNewGoal)
	case "d":
		if g, ok := a.selected(); ok {
			a.confirmID = g.ID
			a.status = fmt.Sprintf("Delete %q? (y/n)", g.Description)
		}
	case "enter":
		if g, ok := a.selected(); ok {
			a.err, a.status = "", ""
			return a.openDetail(g.ID)
		}
	case "L":
		return a.logoutCmd()
	case "X":
		if !a.loading {
			a.confirmAccount = true
			a.status = "Delete your account and all its goals? (y/n)"
		}
	}
	return nil
}

func (a *App) newGoalKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.err = ""
		return a.navigate(guard.ViewDashboard)
	case "tab", "down":
		return a.goalForm.move(1)
	case "shift+tab", "up":
		return a.goalForm.move(-1)
	case "ctrl+left":
		a.category = (a.category + len(apiclient.Categories) - 1) % len(apiclient.Categories)
		return nil
	case "ctrl+right":
		a.category = (a.category + 1) % len(apiclient.Categories)
		return nil
	case "enter":
		if a.loading {
			return nil
		}
		if !a.goalForm.onLast() {
			return a.goalForm.move(1)
		}
		desc, rawDate := a.goalForm.value(0), a.goalForm.value(1)
		if desc == "" || rawDate == "" {
			a.err = "Please fill in all fields"
			return nil
		}
		date, err := util.ParseDate(rawDate)
		if err != nil {
			a.err = "Target date must look like " + util.DateLayout
			return nil
		}
		a.loading = true
		a.err = ""
		return tea.Batch(a.spinner.Tick, a.createGoalCmd(apiclient.GoalInput{
			Category:    apiclient.Categories[a.category],
			Description: desc,
			TargetDate:  date,
		}))
	}
	return a.goalForm.update(msg)
}

// answerDelete settles a pending delete confirmation. Only y deletes.
func (a *App) answerDelete(key string) tea.Cmd {
	id := a.confirmID
	a.confirmID = 0
	if key == "y" {
		a.loading = true
		a.status = ""
		return tea.Batch(a.spinner.Tick, a.deleteGoalCmd(id))
	}
	a.status = "Delete cancelled"
	return nil
}

func (a *App) detailKey(msg tea.KeyMsg) tea.Cmd {
	if a.confirmID != 0 {
		return a.answerDelete(msg.String())
	}
	switch msg.String() {
	case "esc":
		a.detail = nil
		a.err, a.status = "", ""
		return a.navigate(guard.ViewDashboard)
	case "ctrl+d":
		if a.detail != nil && !a.loading {
			a.confirmID = a.detail.Goal.ID
			a.status = fmt.Sprintf("Delete %q? (y/n)", a.detail.Goal.Description)
		}
		return nil
	case "enter":
		if a.loading || a.detail == nil {
			return nil
		}
		text := a.progressForm.value(0)
		if text == "" {
			a.err = "Please describe your progress"
			return nil
		}
		a.loading = true
		a.err = ""
		a.status = "Analyzing progress..."
		return tea.Batch(a.spinner.Tick, a.addProgressCmd(a.detail.Goal.ID, text))
	}
	return a.progressForm.update(msg)
}

func (a *App) openDetail(id int64) tea.Cmd {
	a.detail = nil
	a.detailErr = ""
	if cmd := a.navigate(guard.ViewGoalDetail); cmd != nil || a.view != guard.ViewGoalDetail {
		return cmd
	}
	a.loading = true
	return tea.Batch(a.spinner.Tick, a.progressForm.reset(), a.detailCmd(id))
}

func (a *App) selected() (apiclient.Goal, bool) {
	if a.cursor < 0 || a.cursor >= len(a.goals) {
		return apiclient.Goal{}, false
	}
	return a.goals[a.cursor], true
}

func (a *App) View() string {
	var body string
	switch {
	case !a.booted:
		body = a.spinner.View() + " Loading..."
	case a.view == guard.ViewLogin:
		body = a.loginView()
	case a.view == guard.ViewRegister:
		body = a.registerView()
	case a.view == guard.ViewDashboard:
		body = a.dashboardView()
	case a.view == guard.ViewNewGoal:
		body = a.newGoalView()
	case a.view == guard.ViewGoalDetail:
		body = a.detailView()
	}

	sections := []string{headerStyle.Render("◎ GOAL TRACKER"), body}
	if a.loading && a.booted {
		sections = append(sections, a.spinner.View()+" Working...")
	}
	if a.err != "" {
		sections = append(sections, errorStyle.Render(a.err))
	}
	if a.status != "" {
		sections = append(sections, noticeStyle.Render(a.status))
	}
	return strings.Join(sections, "\n") + "\n"
}

func (a *App) loginView() string {
	return boxStyle.Render(titleStyle.Render("Login") + "\n\n" + a.loginForm.view()) + "\n" +
		hintStyle.Render("enter submit · tab next field · ctrl+r create an account · esc quit")
}

func (a *App) registerView() string {
	return boxStyle.Render(titleStyle.Render("Register") + "\n\n" + a.registerForm.view()) + "\n" +
		hintStyle.Render("enter submit · tab next field · esc back to login")
}

func (a *App) dashboardView() string {
	var b strings.Builder
	if a.username != "" {
		b.WriteString(titleStyle.Render("Welcome, " + a.username))
		b.WriteString("\n\n")
	}

	b.WriteString(titleStyle.Render("Your Goals"))
	b.WriteString("\n")
	switch {
	case a.goals == nil:
		b.WriteString(mutedStyle.Render("Loading goals..."))
	case len(a.goals) == 0:
		b.WriteString(mutedStyle.Render("No goals yet. Press n to create your first goal."))
	default:
		for i, g := range a.goals {
			b.WriteString(goalLine(g, i == a.cursor))
			b.WriteString("\n")
		}
	}

	if len(a.suggestions) > 0 {
		var tips []string
		for _, s := range a.suggestions {
			tips = append(tips, "• "+s)
		}
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(titleStyle.Render("AI Suggestions") + "\n" + mutedStyle.Render(strings.Join(tips, "\n"))))
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("↑/↓ select · enter open · n new goal · d delete · r refresh · L logout · X delete account · q quit"))
	return b.String()
}

func goalLine(g apiclient.Goal, selected bool) string {
	cursor := "  "
	text := fmt.Sprintf("[%s] %s", g.Category, g.Description)
	if selected {
		cursor = "› "
		text = selectedLine.Render(text)
	}
	due := mutedStyle.Render("due " + g.TargetDate.String())
	return fmt.Sprintf("%s%s  %s  %s", cursor, text, due, progressBar(g.Progress, 20))
}

func (a *App) newGoalView() string {
	var cats []string
	for i, c := range apiclient.Categories {
		if i == a.category {
			cats = append(cats, selectedLine.Render("["+c+"]"))
		} else {
			cats = append(cats, mutedStyle.Render(c))
		}
	}
	content := titleStyle.Render("Create New Goal") + "\n\n" +
		mutedStyle.Render("Category") + "\n" + strings.Join(cats, " ") + "\n\n" +
		a.goalForm.view()
	return boxStyle.Render(content) + "\n" +
		hintStyle.Render("ctrl+←/→ category · tab next field · enter create · esc cancel")
}

func (a *App) detailView() string {
	if a.detailErr != "" {
		return errorStyle.Render(a.detailErr) + "\n" + hintStyle.Render("esc back")
	}
	if a.detail == nil {
		return mutedStyle.Render("Loading goal...")
	}
	g := a.detail.Goal
	var b strings.Builder
	b.WriteString(titleStyle.Render(g.Description))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · target %s", g.Category, g.TargetDate.String())))
	b.WriteString("\n\n")
	b.WriteString(progressBar(g.Progress, 30))
	b.WriteString("\n\n")
	b.WriteString(a.progressForm.view())

	b.WriteString(titleStyle.Render("Progress History"))
	b.WriteString("\n")
	if len(a.detail.Updates) == 0 {
		b.WriteString(mutedStyle.Render("No progress updates yet."))
		b.WriteString("\n")
	}
	for _, u := range a.detail.Updates {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			mutedStyle.Render(u.CreatedAt.Format("2006-01-02 15:04")),
			lipgloss.NewStyle().Foreground(ProgressColor(u.Progress)).Render(fmt.Sprintf("%3.0f%%", u.Progress)),
			u.Text,
		))
		if u.Analysis != "" {
			b.WriteString(hintStyle.Render("    " + u.Analysis))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter add update · ctrl+d delete goal · esc back"))
	return b.String()
}
