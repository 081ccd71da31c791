// Package store persists the team roster, task board, and saved provider
// profiles in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"agentteam/internal/domain"
)

// Store wraps the SQLite database holding agents, tasks, and profiles.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath and runs the schema
// migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open team db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate team db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'idle',
			persona    TEXT NOT NULL DEFAULT '',
			commander  INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'todo',
			assignee   TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			name       TEXT PRIMARY KEY,
			provider   TEXT NOT NULL DEFAULT '',
			api_key    TEXT NOT NULL DEFAULT '',
			model      TEXT NOT NULL DEFAULT '',
			base_url   TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string {
	return ulid.Make().String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// --- Agents ---

// CreateAgent inserts a new agent. An empty ID gets a fresh ULID; an empty
// status defaults to idle.
func (s *Store) CreateAgent(_ context.Context, a *domain.Agent) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Status == "" {
		a.Status = domain.AgentIdle
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := s.db.Exec(
		"INSERT INTO agents (id, name, role, status, persona, commander, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.Name, a.Role, string(a.Status), a.Persona, boolToInt(a.Commander),
		formatTime(now), formatTime(now),
	)
	return err
}

// GetAgent fetches one agent by ID.
func (s *Store) GetAgent(_ context.Context, id string) (*domain.Agent, error) {
	row := s.db.QueryRow(
		"SELECT id, name, role, status, persona, commander, created_at, updated_at FROM agents WHERE id = ?", id,
	)
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAgentNotFound
	}
	return a, err
}

// UpdateAgent rewrites every mutable field of an agent.
func (s *Store) UpdateAgent(_ context.Context, a *domain.Agent) error {
	now := time.Now().UTC()
	a.UpdatedAt = now
	res, err := s.db.Exec(
		"UPDATE agents SET name = ?, role = ?, status = ?, persona = ?, commander = ?, updated_at = ? WHERE id = ?",
		a.Name, a.Role, string(a.Status), a.Persona, boolToInt(a.Commander),
		formatTime(now), a.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// DeleteAgent removes an agent from the roster.
func (s *Store) DeleteAgent(_ context.Context, id string) error {
	res, err := s.db.Exec("DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// ListAgents returns the full roster in creation order.
func (s *Store) ListAgents(_ context.Context) ([]domain.Agent, error) {
	rows, err := s.db.Query(
		"SELECT id, name, role, status, persona, commander, created_at, updated_at FROM agents ORDER BY created_at",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// Commander returns the agent currently marked as commander, or nil when
// none is set.
func (s *Store) Commander(ctx context.Context) (*domain.Agent, error) {
	row := s.db.QueryRow(
		"SELECT id, name, role, status, persona, commander, created_at, updated_at FROM agents WHERE commander = 1 LIMIT 1",
	)
	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// SetCommander marks id as the single commander, clearing any previous one.
func (s *Store) SetCommander(_ context.Context, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE agents SET commander = 0 WHERE commander = 1"); err != nil {
		return err
	}
	res, err := tx.Exec("UPDATE agents SET commander = 1, updated_at = ? WHERE id = ?",
		formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrAgentNotFound
	}
	return tx.Commit()
}

// --- Tasks ---

// CreateTask inserts a new task. An empty ID gets a fresh ULID; an empty
// status defaults to todo.
func (s *Store) CreateTask(_ context.Context, t *domain.Task) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = domain.TaskTodo
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := s.db.Exec(
		"INSERT INTO tasks (id, title, status, assignee, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, string(t.Status), t.Assignee, formatTime(now), formatTime(now),
	)
	return err
}

// GetTask fetches one task by ID.
func (s *Store) GetTask(_ context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRow(
		"SELECT id, title, status, assignee, created_at, updated_at FROM tasks WHERE id = ?", id,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

// UpdateTask rewrites every mutable field of a task.
func (s *Store) UpdateTask(_ context.Context, t *domain.Task) error {
	now := time.Now().UTC()
	t.UpdatedAt = now
	res, err := s.db.Exec(
		"UPDATE tasks SET title = ?, status = ?, assignee = ?, updated_at = ? WHERE id = ?",
		t.Title, string(t.Status), t.Assignee, formatTime(now), t.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a task from the board.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ListTasks returns every task in creation order.
func (s *Store) ListTasks(_ context.Context) ([]domain.Task, error) {
	rows, err := s.db.Query(
		"SELECT id, title, status, assignee, created_at, updated_at FROM tasks ORDER BY created_at",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ActiveTaskSummaries returns the context-builder view of every non-done
// task, in creation order.
func (s *Store) ActiveTaskSummaries(ctx context.Context) ([]domain.TaskSummary, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	var summaries []domain.TaskSummary
	for _, t := range tasks {
		if t.Active() {
			summaries = append(summaries, t.Summary())
		}
	}
	return summaries, nil
}

// --- Profiles ---

// Profile is one saved provider configuration.
type Profile struct {
	Name      string
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	UpdatedAt time.Time
}

// SaveProfile inserts or replaces a named profile.
func (s *Store) SaveProfile(_ context.Context, p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile requires a name")
	}
	now := time.Now().UTC()
	p.UpdatedAt = now
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO profiles (name, provider, api_key, model, base_url, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.Name, p.Provider, p.APIKey, p.Model, p.BaseURL, formatTime(now),
	)
	return err
}

// GetProfile fetches one saved profile by name.
func (s *Store) GetProfile(_ context.Context, name string) (*Profile, error) {
	row := s.db.QueryRow(
		"SELECT name, provider, api_key, model, base_url, updated_at FROM profiles WHERE name = ?", name,
	)
	var p Profile
	var updated string
	if err := row.Scan(&p.Name, &p.Provider, &p.APIKey, &p.Model, &p.BaseURL, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// DeleteProfile removes a saved profile.
func (s *Store) DeleteProfile(_ context.Context, name string) error {
	res, err := s.db.Exec("DELETE FROM profiles WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// ListProfiles returns every saved profile, most recently updated first.
func (s *Store) ListProfiles(_ context.Context) ([]Profile, error) {
	rows, err := s.db.Query(
		"SELECT name, provider, api_key, model, base_url, updated_at FROM profiles ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var updated string
		if err := rows.Scan(&p.Name, &p.Provider, &p.APIKey, &p.Model, &p.BaseURL, &updated); err != nil {
			return nil, err
		}
		p.UpdatedAt = parseTime(updated)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// --- Seeding ---

// Seed installs a small demo team when the roster is empty. Repeated calls
// are no-ops.
func (s *Store) Seed(ctx context.Context) error {
	agents, err := s.ListAgents(ctx)
	if err != nil {
		return err
	}
	if len(agents) > 0 {
		return nil
	}

	roster := []domain.Agent{
		{Name: "Atlas", Role: "Commander", Status: domain.AgentIdle, Commander: true},
		{Name: "Nova", Role: "Researcher", Status: domain.AgentIdle},
		{Name: "Pix", Role: "Designer", Status: domain.AgentIdle},
	}
	for i := range roster {
		if err := s.CreateAgent(ctx, &roster[i]); err != nil {
			return err
		}
	}
	return s.CreateTask(ctx, &domain.Task{Title: "Plan the first sprint", Status: domain.TaskTodo})
}

// --- scan helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(row scanner) (*domain.Agent, error) {
	var a domain.Agent
	var status, createdStr, updatedStr string
	var commander int
	if err := row.Scan(&a.ID, &a.Name, &a.Role, &status, &a.Persona, &commander, &createdStr, &updatedStr); err != nil {
		return nil, err
	}
	a.Status = domain.AgentStatus(status)
	a.Commander = commander != 0
	a.CreatedAt = parseTime(createdStr)
	a.UpdatedAt = parseTime(updatedStr)
	return &a, nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var t domain.Task
	var status, createdStr, updatedStr string
	if err := row.Scan(&t.ID, &t.Title, &status, &t.Assignee, &createdStr, &updatedStr); err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.CreatedAt = parseTime(createdStr)
	t.UpdatedAt = parseTime(updatedStr)
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
