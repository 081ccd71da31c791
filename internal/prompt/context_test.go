package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentteam/internal/domain"
)

func sampleRoster() []domain.Agent {
	return []domain.Agent{
		{Name: "Atlas", Role: "Commander", Status: domain.AgentIdle, Commander: true},
		{Name: "Nova", Role: "Researcher", Status: domain.AgentWorking},
		{Name: "Pix", Role: "Designer", Status: domain.AgentOffline},
	}
}

func TestBuildCommanderContextSingleSystemMessage(t *testing.T) {
	roster := sampleRoster()
	msgs := BuildCommanderContext(&roster[0], roster, nil)

	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.NotEmpty(t, msgs[0].Content)
}

func TestBuildCommanderContextCustomPersona(t *testing.T) {
	commander := &domain.Agent{Name: "Atlas", Persona: "You are Atlas, a terse mission controller."}
	msgs := BuildCommanderContext(commander, sampleRoster(), nil)

	assert.True(t, strings.HasPrefix(msgs[0].Content, "You are Atlas, a terse mission controller."))
}

func TestBuildCommanderContextFallbackPersona(t *testing.T) {
	commander := &domain.Agent{Name: "Atlas"}
	msgs := BuildCommanderContext(commander, sampleRoster(), nil)
	assert.Contains(t, msgs[0].Content, "Atlas")

	msgs = BuildCommanderContext(nil, sampleRoster(), nil)
	assert.Contains(t, msgs[0].Content, "commander")
}

func TestBuildCommanderContextRosterBlock(t *testing.T) {
	roster := sampleRoster()
	msgs := BuildCommanderContext(&roster[0], roster, nil)
	content := msgs[0].Content

	assert.Contains(t, content, "Total Agents: 3")
	assert.Contains(t, content, "- Atlas (Commander): idle")
	assert.Contains(t, content, "- Nova (Researcher): working")
	assert.Contains(t, content, "- Pix (Designer): offline")
}

func TestBuildCommanderContextEmptyRoster(t *testing.T) {
	msgs := BuildCommanderContext(nil, nil, nil)
	content := msgs[0].Content

	assert.Contains(t, content, "## Team Status")
	assert.Contains(t, content, "Total Agents: 0")
	// Header only, no per-agent lines.
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "- ") && strings.Contains(line, "(") {
			t.Errorf("unexpected agent line in empty roster context: %q", line)
		}
	}
}

func TestBuildCommanderContextTaskTruncation(t *testing.T) {
	var tasks []domain.TaskSummary
	for i := 1; i <= 15; i++ {
		tasks = append(tasks, domain.TaskSummary{Title: fmt.Sprintf("task-%02d", i), Status: "todo"})
	}

	msgs := BuildCommanderContext(nil, nil, tasks)
	content := msgs[0].Content

	for i := 1; i <= 10; i++ {
		assert.Contains(t, content, fmt.Sprintf("- task-%02d: todo", i))
	}
	for i := 11; i <= 15; i++ {
		assert.NotContains(t, content, fmt.Sprintf("task-%02d", i))
	}

	// Order preserved.
	prev := -1
	for i := 1; i <= 10; i++ {
		idx := strings.Index(content, fmt.Sprintf("task-%02d", i))
		require.Greater(t, idx, prev)
		prev = idx
	}
}

func TestBuildCommanderContextNoActiveTasks(t *testing.T) {
	msgs := BuildCommanderContext(nil, sampleRoster(), nil)
	assert.Contains(t, msgs[0].Content, "No active tasks.")

	msgs = BuildCommanderContext(nil, sampleRoster(), []domain.TaskSummary{{Title: "ship it", Status: "in_progress"}})
	assert.NotContains(t, msgs[0].Content, "No active tasks.")
	assert.Contains(t, msgs[0].Content, "- ship it: in_progress")
}

func TestBuildCommanderContextDeterministic(t *testing.T) {
	roster := sampleRoster()
	tasks := []domain.TaskSummary{{Title: "a", Status: "todo"}, {Title: "b", Status: "done"}}

	first := BuildCommanderContext(&roster[0], roster, tasks)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildCommanderContext(&roster[0], roster, tasks))
	}
}
