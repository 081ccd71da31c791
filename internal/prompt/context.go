// Package prompt assembles the system-level conversation context that
// precedes user turns in a commander chat.
package prompt

import (
	"fmt"
	"strings"

	"agentteam/internal/domain"
)

// maxContextTasks bounds the task block so the system prompt stays small.
const maxContextTasks = 10

// BuildCommanderContext produces the leading system message for a commander
// conversation: persona, then a team-status block over the full roster, then
// a snapshot of active tasks. Pure function; callers supply an up-to-date
// roster and task list.
func BuildCommanderContext(commander *domain.Agent, roster []domain.Agent, tasks []domain.TaskSummary) []domain.Message {
	var b strings.Builder

	b.WriteString(personaFor(commander))
	b.WriteString("\n\n")
	writeTeamStatus(&b, roster)
	b.WriteString("\n")
	writeActiveTasks(&b, tasks)

	return []domain.Message{{Role: domain.RoleSystem, Content: b.String()}}
}

func personaFor(commander *domain.Agent) string {
	if commander != nil && commander.Persona != "" {
		return commander.Persona
	}
	if commander != nil && commander.Name != "" {
		return fmt.Sprintf("You are %s, the commander of this agent team. You coordinate the team, track task progress, and report status concisely.", commander.Name)
	}
	return "You are the commander of this agent team. You coordinate the team, track task progress, and report status concisely."
}

func writeTeamStatus(b *strings.Builder, roster []domain.Agent) {
	b.WriteString("## Team Status\n")
	fmt.Fprintf(b, "Total Agents: %d\n", len(roster))
	for _, a := range roster {
		fmt.Fprintf(b, "- %s (%s): %s\n", a.Name, a.Role, a.Status)
	}
}

func writeActiveTasks(b *strings.Builder, tasks []domain.TaskSummary) {
	b.WriteString("## Active Tasks\n")
	if len(tasks) == 0 {
		b.WriteString("No active tasks.\n")
		return
	}
	if len(tasks) > maxContextTasks {
		tasks = tasks[:maxContextTasks]
	}
	for _, t := range tasks {
		fmt.Fprintf(b, "- %s: %s\n", t.Title, t.Status)
	}
}
