package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"agentteam/internal/adapter/llm"
	"agentteam/internal/domain"
	"agentteam/internal/infra/config"
	"agentteam/internal/infra/logger"
	"agentteam/internal/infra/tracer"
	"agentteam/internal/prompt"
	"agentteam/internal/store"
	"agentteam/internal/tui"
)

func main() {
	// Handle help flag first
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := runDashboard(os.Args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "ask":
		if err := runAsk(args); err != nil {
			fmt.Fprintf(os.Stderr, "ask: %v\n", err)
			os.Exit(1)
		}
	case "stream":
		if err := runStream(args); err != nil {
			fmt.Fprintf(os.Stderr, "stream: %v\n", err)
			os.Exit(1)
		}
	case "test":
		if err := runTest(args); err != nil {
			fmt.Fprintf(os.Stderr, "test: %v\n", err)
			os.Exit(1)
		}
	case "agents":
		if err := runAgents(args); err != nil {
			fmt.Fprintf(os.Stderr, "agents: %v\n", err)
			os.Exit(1)
		}
	case "tasks":
		if err := runTasks(args); err != nil {
			fmt.Fprintf(os.Stderr, "tasks: %v\n", err)
			os.Exit(1)
		}
	case "profiles":
		if err := runProfiles(args); err != nil {
			fmt.Fprintf(os.Stderr, "profiles: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'agentteam --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`agentteam - Multi-agent team dashboard

USAGE:
    agentteam [COMMAND] [FLAGS]

COMMANDS:
    ask         Send one message to the commander and print the reply
    stream      Send one message and stream the reply as it arrives
    test        Check connectivity to the configured provider
    agents      Manage the team roster
                Subcommands: list, add, commander, status, remove
    tasks       Manage the task board
                Subcommands: list, add, done, remove
    profiles    Manage saved provider profiles
                Subcommands: list, save, delete

    (no command) - Launch the interactive dashboard

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./config.yaml)
    --profile NAME     Provider profile to use for this invocation

CONFIGURATION:
    Config file: ./config.yaml
    Environment: AGENTTEAM_* variables override config

EXAMPLES:
    agentteam                          # Interactive dashboard
    agentteam ask "status report"      # One-shot question
    agentteam stream "plan the sprint" # Streamed reply
    agentteam test --profile work      # Probe a saved profile
    agentteam agents add Nova --role Engineer
    agentteam tasks add "Review the release notes"`)
}

// app bundles the wired collaborators every command needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	chatter llm.Chatter
	llmCfg  llm.Config
	opts    domain.ChatOptions

	closeLog       func() error
	shutdownTracer func(context.Context) error
}

func newApp(ctx context.Context, configPath, profile string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer.Enabled, cfg.Tracer.Exporter)
	if err != nil {
		closeLog()
		return nil, err
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		shutdownTracer(ctx)
		closeLog()
		return nil, err
	}
	if cfg.Team.Seed {
		if err := st.Seed(ctx); err != nil {
			st.Close()
			shutdownTracer(ctx)
			closeLog()
			return nil, fmt.Errorf("seed store: %w", err)
		}
	}

	llmCfg, err := resolveLLMConfig(ctx, cfg, st, profile)
	if err != nil {
		st.Close()
		shutdownTracer(ctx)
		closeLog()
		return nil, err
	}

	client := llm.NewHTTPClient(cfg.LLM.ConnTimeout, cfg.LLM.RespTimeout, cfg.LLM.Pool)
	svc := llm.NewService(client, log)
	var chatter llm.Chatter = svc
	if cfg.LLM.Breaker.Enabled {
		chatter = llm.NewCircuitBreakerChatter(svc, cfg.LLM.Breaker.CircuitBreakerConfig, log)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   st,
		chatter: chatter,
		llmCfg:  llmCfg,
		opts: domain.ChatOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		closeLog:       closeLog,
		shutdownTracer: shutdownTracer,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	a.store.Close()
	a.shutdownTracer(ctx)
	a.closeLog()
}

// resolveLLMConfig picks the provider settings for this invocation. A profile
// saved in the store wins over one defined in the config file; both overlay
// the global llm settings field-by-field.
func resolveLLMConfig(ctx context.Context, cfg *config.Config, st *store.Store, profile string) (llm.Config, error) {
	if profile != "" {
		p, err := st.GetProfile(ctx, profile)
		if err == nil {
			base, berr := cfg.LLM.Effective("")
			if berr != nil {
				return llm.Config{}, berr
			}
			return overlayProfile(base, p), nil
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return llm.Config{}, err
		}
	}
	return cfg.LLM.Effective(profile)
}

func overlayProfile(base llm.Config, p *store.Profile) llm.Config {
	if p.Provider != "" {
		base.Provider = llm.Provider(p.Provider)
	}
	if p.APIKey != "" {
		base.APIKey = p.APIKey
	}
	if p.Model != "" {
		base.Model = p.Model
	}
	if p.BaseURL != "" {
		base.BaseURL = p.BaseURL
	}
	return base
}

func globalFlags(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file path")
	profile := fs.String("profile", "", "provider profile name")
	return fs, configPath, profile
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- commands ---

func runDashboard(args []string) error {
	fs, configPath, profile := globalFlags("agentteam")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath, *profile)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	return tui.Run(tui.Deps{
		Store:   a.store,
		Chatter: a.chatter,
		Config:  a.llmCfg,
		Options: a.opts,
		Team:    a.cfg.Team.Name,
		Logger:  a.log,
	})
}

func runAsk(args []string) error {
	fs, configPath, profile := globalFlags("ask")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("usage: agentteam ask [flags] MESSAGE")
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, *configPath, *profile)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	msgs, err := commanderMessages(ctx, a.store, text)
	if err != nil {
		return err
	}

	result, err := a.chatter.Chat(ctx, a.llmCfg, msgs, a.opts)
	if err != nil {
		return err
	}
	fmt.Println(result.Content)
	return nil
}

func runStream(args []string) error {
	fs, configPath, profile := globalFlags("stream")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("usage: agentteam stream [flags] MESSAGE")
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, *configPath, *profile)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	msgs, err := commanderMessages(ctx, a.store, text)
	if err != nil {
		return err
	}

	ch, err := a.chatter.ChatStream(ctx, a.llmCfg, msgs, a.opts)
	if err != nil {
		return err
	}
	for chunk := range ch {
		if chunk.Done {
			break
		}
		fmt.Print(chunk.Content)
	}
	fmt.Println()
	return nil
}

func runTest(args []string) error {
	fs, configPath, profile := globalFlags("test")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, *configPath, *profile)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	result := a.chatter.TestConnection(ctx, a.llmCfg)
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Printf("%s (%s %s)\n", result.Message, a.llmCfg.Provider, a.llmCfg.Model)
	return nil
}

// commanderMessages assembles the system context plus the user's message.
func commanderMessages(ctx context.Context, st *store.Store, text string) ([]domain.Message, error) {
	commander, err := st.Commander(ctx)
	if err != nil {
		return nil, err
	}
	roster, err := st.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := st.ActiveTaskSummaries(ctx)
	if err != nil {
		return nil, err
	}

	msgs := prompt.BuildCommanderContext(commander, roster, tasks)
	return append(msgs, domain.Message{Role: domain.RoleUser, Content: text}), nil
}

func runAgents(args []string) error {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = args[0]
		args = args[1:]
	}

	fs, configPath, profile := globalFlags("agents")
	role := fs.String("role", "Agent", "agent role")
	persona := fs.String("persona", "", "custom persona text")
	status := fs.String("status", "", "agent status (idle, working, offline)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath, *profile)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	switch action {
	case "list":
		agents, err := a.store.ListAgents(ctx)
		if err != nil {
			return err
		}
		if len(agents) == 0 {
			fmt.Println("no agents")
			return nil
		}
		for _, ag := range agents {
			marker := " "
			if ag.Commander {
				marker = "*"
			}
			fmt.Printf("%s %s  %s (%s) %s\n", marker, ag.ID, ag.Name, ag.Role, ag.Status)
		}
		return nil

	case "add":
		name := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if name == "" {
			return fmt.Errorf("usage: agentteam agents add NAME [--role ROLE] [--persona TEXT]")
		}
		ag := &domain.Agent{Name: name, Role: *role, Persona: *persona}
		if err := a.store.CreateAgent(ctx, ag); err != nil {
			return err
		}
		fmt.Printf("added %s (%s)\n", ag.Name, ag.ID)
		return nil

	case "commander":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: agentteam agents commander AGENT_ID")
		}
		if err := a.store.SetCommander(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("commander updated")
		return nil

	case "status":
		if fs.NArg() != 1 || *status == "" {
			return fmt.Errorf("usage: agentteam agents status AGENT_ID --status STATUS")
		}
		ag, err := a.store.GetAgent(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		ag.Status = domain.AgentStatus(*status)
		if err := a.store.UpdateAgent(ctx, ag); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", ag.Name, ag.Status)
		return nil

	case "remove":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: agentteam agents remove AGENT_ID")
		}
		if err := a.store.DeleteAgent(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("removed")
		return nil

	default:
		return fmt.Errorf("unknown agents subcommand: %s", action)
	}
}

func runTasks(args []string) error {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = args[0]
		args = args[1:]
	}

	fs, configPath, profile := globalFlags("tasks")
	assignee := fs.String("assignee", "", "agent ID to assign the task to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath, *profile)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	switch action {
	case "list":
		tasks, err := a.store.ListTasks(ctx)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return nil
		}
		for _, t := range tasks {
			fmt.Printf("%s  [%s] %s\n", t.ID, t.Status, t.Title)
		}
		return nil

	case "add":
		title := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if title == "" {
			return fmt.Errorf("usage: agentteam tasks add TITLE [--assignee AGENT_ID]")
		}
		t := &domain.Task{Title: title, Assignee: *assignee}
		if err := a.store.CreateTask(ctx, t); err != nil {
			return err
		}
		fmt.Printf("added %s (%s)\n", t.Title, t.ID)
		return nil

	case "done":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: agentteam tasks done TASK_ID")
		}
		t, err := a.store.GetTask(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		t.Status = domain.TaskDone
		if err := a.store.UpdateTask(ctx, t); err != nil {
			return err
		}
		fmt.Printf("done: %s\n", t.Title)
		return nil

	case "remove":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: agentteam tasks remove TASK_ID")
		}
		if err := a.store.DeleteTask(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("removed")
		return nil

	default:
		return fmt.Errorf("unknown tasks subcommand: %s", action)
	}
}

func runProfiles(args []string) error {
	action := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action = args[0]
		args = args[1:]
	}

	fs, configPath, _ := globalFlags("profiles")
	provider := fs.String("provider", "", "provider name")
	key := fs.String("key", "", "API key")
	model := fs.String("model", "", "model name")
	baseURL := fs.String("base-url", "", "custom endpoint base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath, "")
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	switch action {
	case "list":
		profiles, err := a.store.ListProfiles(ctx)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("no profiles")
			return nil
		}
		for _, p := range profiles {
			fmt.Printf("%s  %s %s\n", p.Name, p.Provider, p.Model)
		}
		return nil

	case "save":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: agentteam profiles save NAME --provider P [--key K] [--model M] [--base-url U]")
		}
		if *provider != "" {
			if _, err := llm.ParseProvider(*provider); err != nil {
				return err
			}
		}
		p := &store.Profile{
			Name:     fs.Arg(0),
			Provider: *provider,
			APIKey:   *key,
			Model:    *model,
			BaseURL:  *baseURL,
		}
		if err := a.store.SaveProfile(ctx, p); err != nil {
			return err
		}
		fmt.Printf("saved profile %s\n", p.Name)
		return nil

	case "delete":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: agentteam profiles delete NAME")
		}
		if err := a.store.DeleteProfile(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil

	default:
		return fmt.Errorf("unknown profiles subcommand: %s", action)
	}
}
