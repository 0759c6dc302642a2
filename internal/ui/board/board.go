// Package board implements the workflow board: the reactive, presentation
// facing adapter over the lifecycle service. It keeps a local copy of the
// collection, reloads it from the service after every mutation and on every
// external change signal, and renders it partitioned by status.
package board

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opsdeck/opsdeck/internal/insights"
	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/pubsub"
	"github.com/opsdeck/opsdeck/internal/ui/toaster"
	"github.com/opsdeck/opsdeck/internal/watcher"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

// ViewMode determines which view is active within the board.
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetails
	ViewPicker
	ViewHelp
)

// Column indexes the three status buckets.
type Column int

const (
	ColTodo Column = iota
	ColInProgress
	ColCompleted
	columnCount
)

func (c Column) title() string {
	switch c {
	case ColInProgress:
		return "In Progress"
	case ColCompleted:
		return "Completed"
	default:
		return "To Do"
	}
}

// Options configures board construction.
type Options struct {
	ShowCounts    bool
	ShowStatusBar bool
	MarkdownStyle string
}

// pickerOption is one selectable suggested action from the insight feed.
type pickerOption struct {
	insight insights.Insight
	action  workflow.Action
}

// Model is the board state.
type Model struct {
	svc    workflow.Lifecycle
	broker *pubsub.Broker[workflow.Notification]
	feed   *insights.Client // nil when no endpoint is configured
	opts   Options

	collection []workflow.Workflow
	buckets    [columnCount][]workflow.Workflow

	view     ViewMode
	col      Column
	rows     [columnCount]int
	width    int
	height   int
	creating bool

	picker       []pickerOption
	pickerCursor int

	toast toaster.Model

	busListener   *pubsub.ContinuousListener[workflow.Notification]
	storeListener *pubsub.ContinuousListener[watcher.StoreChanged]
}

// New creates a board over the given service and broadcast broker.
// storeBroker may be nil when auto-refresh is disabled; feed may be nil when
// no insights endpoint is configured.
func New(
	ctx context.Context,
	svc workflow.Lifecycle,
	broker *pubsub.Broker[workflow.Notification],
	storeBroker *pubsub.Broker[watcher.StoreChanged],
	feed *insights.Client,
	opts Options,
) Model {
	m := Model{
		svc:    svc,
		broker: broker,
		feed:   feed,
		opts:   opts,
		view:   ViewBoard,
		toast:  toaster.New(),
	}
	m.busListener = pubsub.NewContinuousListener(ctx, broker)
	if storeBroker != nil {
		m.storeListener = pubsub.NewContinuousListener(ctx, storeBroker)
	}
	return m
}

// Init loads the collection and starts the event listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.reloadCmd(), m.busListener.Listen()}
	if m.storeListener != nil {
		cmds = append(cmds, m.storeListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Buckets returns the collection partitioned by status, in column order
// todo, in_progress, completed.
func (m Model) Buckets() [3][]workflow.Workflow {
	return [3][]workflow.Workflow{m.buckets[ColTodo], m.buckets[ColInProgress], m.buckets[ColCompleted]}
}

// Selected returns the workflow under the cursor, or false when the current
// column is empty.
func (m Model) Selected() (workflow.Workflow, bool) {
	bucket := m.buckets[m.col]
	if len(bucket) == 0 {
		return workflow.Workflow{}, false
	}
	row := m.rows[m.col]
	if row >= len(bucket) {
		row = len(bucket) - 1
	}
	return bucket[row], true
}

// reloadedMsg carries a fresh copy of the collection from the service.
type reloadedMsg struct {
	collection []workflow.Workflow
}

// createdMsg reports the outcome of an asynchronous creation.
type createdMsg struct {
	created workflow.Workflow
	err     error
}

// mutatedMsg reports the outcome of a status advance or delete.
type mutatedMsg struct {
	ok bool
}

// feedMsg carries the fetched insight picker options.
type feedMsg struct {
	options []pickerOption
	err     error
}

// reloadCmd re-reads the collection from the service. The service, not the
// board's local copy, is the single source of truth: mutations never patch
// local state from their return values.
func (m Model) reloadCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return reloadedMsg{collection: svc.Workflows()}
	}
}

// createCmd runs the creation and, on success, broadcasts it. Publishing
// lives here rather than in the service so the service stays free of UI
// event concerns.
func (m Model) createCmd(opt pickerOption) tea.Cmd {
	svc, broker := m.svc, m.broker
	return func() tea.Msg {
		created, err := svc.CreateFromAction(opt.action, workflow.SourceAIInsight, opt.insight.ID, opt.insight.Title)
		if err != nil {
			return createdMsg{err: err}
		}
		broker.Publish(pubsub.CreatedEvent, workflow.CreatedNotification(created))
		return createdMsg{created: created}
	}
}

// advanceCmd moves the selected workflow one status forward. Completed
// workflows have no forward transition and the key is a no-op for them.
func (m Model) advanceCmd(w workflow.Workflow) tea.Cmd {
	svc, broker := m.svc, m.broker
	return func() tea.Msg {
		next, ok := w.Status.Next()
		if !ok {
			return nil
		}
		if !svc.Update(w.ID, workflow.Patch{Status: &next}) {
			return mutatedMsg{ok: false}
		}
		w.Status = next
		broker.Publish(pubsub.UpdatedEvent, workflow.UpdatedNotification(w))
		return mutatedMsg{ok: true}
	}
}

// deleteCmd removes the selected workflow.
func (m Model) deleteCmd(w workflow.Workflow) tea.Cmd {
	svc, broker := m.svc, m.broker
	return func() tea.Msg {
		if !svc.Delete(w.ID) {
			return mutatedMsg{ok: false}
		}
		broker.Publish(pubsub.DeletedEvent, workflow.DeletedNotification(w))
		return mutatedMsg{ok: true}
	}
}

// fetchFeedCmd loads the insight feed and flattens its suggested actions.
func (m Model) fetchFeedCmd() tea.Cmd {
	feed := m.feed
	return func() tea.Msg {
		list, err := feed.List(context.Background())
		if err != nil {
			return feedMsg{err: err}
		}
		var options []pickerOption
		for _, insight := range list {
			for _, action := range insight.SuggestedActions {
				options = append(options, pickerOption{insight: insight, action: action})
			}
		}
		return feedMsg{options: options}
	}
}

// partition rebuilds the status buckets from the collection. O(n) on every
// reload; the collection never grows large enough for indexing to pay off.
func (m *Model) partition() {
	for i := range m.buckets {
		m.buckets[i] = nil
	}
	for _, w := range m.collection {
		switch w.Status {
		case workflow.StatusInProgress:
			m.buckets[ColInProgress] = append(m.buckets[ColInProgress], w)
		case workflow.StatusCompleted:
			m.buckets[ColCompleted] = append(m.buckets[ColCompleted], w)
		default:
			m.buckets[ColTodo] = append(m.buckets[ColTodo], w)
		}
	}
	for i := range m.rows {
		max := len(m.buckets[i]) - 1
		if max < 0 {
			max = 0
		}
		if m.rows[i] > max {
			m.rows[i] = max
		}
	}
}

// Update handles messages for the board and returns the next board state.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.FocusMsg:
		// Regaining focus re-syncs the board even when a change
		// notification was missed or coalesced.
		m.invalidate()
		return m, m.reloadCmd()

	case reloadedMsg:
		m.collection = msg.collection
		m.partition()
		return m, nil

	case createdMsg:
		m.creating = false
		if msg.err != nil {
			m.toast = m.toast.Show(msg.err.Error(), toaster.StyleError)
			return m, toaster.ScheduleDismiss(toaster.DefaultDuration)
		}
		m.view = ViewBoard
		return m, m.reloadCmd()

	case mutatedMsg:
		if !msg.ok {
			m.toast = m.toast.Show("Workflow no longer exists", toaster.StyleError)
			return m, tea.Batch(m.reloadCmd(), toaster.ScheduleDismiss(toaster.DefaultDuration))
		}
		return m, m.reloadCmd()

	case feedMsg:
		if msg.err != nil {
			m.toast = m.toast.Show("Insight feed unavailable: "+msg.err.Error(), toaster.StyleError)
			return m, toaster.ScheduleDismiss(toaster.DefaultDuration)
		}
		if len(msg.options) == 0 {
			m.toast = m.toast.Show("No suggested actions right now", toaster.StyleInfo)
			return m, toaster.ScheduleDismiss(toaster.DefaultDuration)
		}
		m.picker = msg.options
		m.pickerCursor = 0
		m.view = ViewPicker
		return m, nil

	case pubsub.Event[workflow.Notification]:
		// In-process broadcast: toast plus reload, then keep listening.
		style := toaster.StyleSuccess
		if msg.Type == pubsub.DeletedEvent {
			style = toaster.StyleInfo
		}
		m.toast = m.toast.Show(msg.Payload.Message, style)
		log.Debug(log.CatUI, "Broadcast received", "type", msg.Type)
		return m, tea.Batch(
			m.reloadCmd(),
			m.busListener.Listen(),
			toaster.ScheduleDismiss(toaster.DefaultDuration),
		)

	case pubsub.Event[watcher.StoreChanged]:
		// Another process rewrote the store: drop the in-memory copy and
		// re-hydrate.
		log.Debug(log.CatUI, "Store changed externally, reloading")
		m.invalidate()
		cmds := []tea.Cmd{m.reloadCmd()}
		if m.storeListener != nil {
			cmds = append(cmds, m.storeListener.Listen())
		}
		return m, tea.Batch(cmds...)

	case toaster.DismissMsg:
		m.toast = m.toast.Hide()
		return m, nil
	}

	return m, nil
}

// invalidate forces the service to re-hydrate from the store on next read.
func (m Model) invalidate() {
	if r, ok := m.svc.(interface{ Reload() }); ok {
		r.Reload()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.view {
	case ViewDetails:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc", "enter":
			m.view = ViewBoard
		}
		return m, nil

	case ViewHelp:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "?", "q":
			m.view = ViewBoard
		}
		return m, nil

	case ViewPicker:
		return m.handlePickerKey(msg)
	}

	return m.handleBoardKey(msg)
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "h", "left", "shift+tab":
		if m.col > 0 {
			m.col--
		}
	case "l", "right", "tab":
		if m.col < columnCount-1 {
			m.col++
		}
	case "k", "up":
		if m.rows[m.col] > 0 {
			m.rows[m.col]--
		}
	case "j", "down":
		if m.rows[m.col] < len(m.buckets[m.col])-1 {
			m.rows[m.col]++
		}

	case "enter":
		if _, ok := m.Selected(); ok {
			m.view = ViewDetails
		}

	case "s", " ":
		if w, ok := m.Selected(); ok {
			return m, m.advanceCmd(w)
		}

	case "d", "x":
		if w, ok := m.Selected(); ok {
			return m, m.deleteCmd(w)
		}

	case "n":
		if m.feed == nil {
			m.toast = m.toast.Show("No insights endpoint configured", toaster.StyleError)
			return m, toaster.ScheduleDismiss(toaster.DefaultDuration)
		}
		return m, m.fetchFeedCmd()

	case "r":
		m.invalidate()
		return m, m.reloadCmd()

	case "?":
		m.view = ViewHelp
	}

	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.view = ViewBoard
	case "k", "up":
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case "j", "down":
		if m.pickerCursor < len(m.picker)-1 {
			m.pickerCursor++
		}
	case "enter":
		if m.pickerCursor < len(m.picker) {
			m.creating = true
			return m, m.createCmd(m.picker[m.pickerCursor])
		}
	}
	return m, nil
}

// statusLine summarizes the collection for the status bar.
func (m Model) statusLine() string {
	stats := m.svc.Stats()
	return fmt.Sprintf("active %d · completed this week %d · overdue %d · saved $%.0f",
		stats.Active, stats.CompletedThisWeek, stats.Overdue, stats.TotalSaved)
}
