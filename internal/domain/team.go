package domain

import "time"

// AgentStatus describes what an agent on the roster is currently doing.
type AgentStatus string

const (
	AgentIdle    AgentStatus = "idle"
	AgentWorking AgentStatus = "working"
	AgentOffline AgentStatus = "offline"
)

// Agent is one member of the team roster.
type Agent struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Role      string      `json:"role"`
	Status    AgentStatus `json:"status"`
	Persona   string      `json:"persona,omitempty"` // custom system-prompt text; empty = synthesized
	Commander bool        `json:"commander,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TaskStatus describes the lifecycle stage of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Task is one entry on the team's task board.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Assignee  string     `json:"assignee,omitempty"` // agent ID, optional
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TaskSummary is the compact task view fed into the conversation context.
type TaskSummary struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Summary converts a task to its context-builder form.
func (t Task) Summary() TaskSummary {
	return TaskSummary{Title: t.Title, Status: string(t.Status)}
}

// Active reports whether the task should appear in the active-task context.
func (t Task) Active() bool {
	return t.Status != TaskDone
}
