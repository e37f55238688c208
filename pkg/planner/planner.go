// Package planner turns free-text requests into an ordered list of tasks.
package planner

import (
	"sort"
	"strings"
	"sync"

	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// Rule contributes tasks when its predicate matches. Match receives the
// lower-cased input; Build receives the input as typed. A Fallback rule is
// only considered while no earlier rule has produced a task.
type Rule struct {
	Name     string
	Match    func(input string, ctx task.Context) bool
	Build    func(input string, ctx task.Context) []*task.Task
	Fallback bool
}

// Planner evaluates every rule in order and keeps the resulting task list
// for completion tracking. A Planner is meant to serve one request.
type Planner struct {
	mu    sync.RWMutex
	rules []Rule
	tasks []*task.Task
	log   logger.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(p *Planner) { p.rules = rules }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) { p.log = l }
}

// New creates a Planner using DefaultRules unless overridden.
func New(opts ...Option) *Planner {
	p := &Planner{
		rules: DefaultRules(),
		log:   logger.Global(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "planner")
	return p
}

// Plan evaluates all rules against input and returns the matching tasks
// stable-sorted by priority. Rules are not mutually exclusive. The list
// replaces any previously planned tasks.
func (p *Planner) Plan(input string, ctx task.Context) []*task.Task {
	if ctx == nil {
		ctx = task.Context{}
	}
	normalized := strings.ToLower(input)

	var (
		tasks   []*task.Task
		matched []string
	)
	for _, rule := range p.rules {
		if rule.Fallback && len(tasks) > 0 {
			continue
		}
		if !rule.Match(normalized, ctx) {
			continue
		}
		matched = append(matched, rule.Name)
		tasks = append(tasks, rule.Build(input, ctx)...)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})

	p.mu.Lock()
	p.tasks = tasks
	p.mu.Unlock()

	p.log.Debug("planned tasks", "rules", matched, "count", len(tasks))
	return append([]*task.Task(nil), tasks...)
}

// NextTask returns the first task not yet completed, in planned order, or
// nil when all are done.
func (p *Planner) NextTask() *task.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, t := range p.tasks {
		if !t.Completed() {
			return t
		}
	}
	return nil
}

// MarkTaskComplete completes the task with the given ID. It reports
// whether a task was found; unknown IDs are logged and ignored.
// Completing an already completed task keeps the first result.
func (p *Planner) MarkTaskComplete(id string, result task.Result) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, t := range p.tasks {
		if t.ID == id {
			if !t.Complete(result) {
				p.log.Debug("task already completed", "task_id", id)
			}
			return true
		}
	}
	p.log.Warn("mark complete for unknown task", "task_id", id)
	return false
}

// Tasks returns the current plan.
func (p *Planner) Tasks() []*task.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*task.Task(nil), p.tasks...)
}

// CompletedTasks returns the completed tasks in planned order.
func (p *Planner) CompletedTasks() []*task.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*task.Task
	for _, t := range p.tasks {
		if t.Completed() {
			out = append(out, t)
		}
	}
	return out
}
