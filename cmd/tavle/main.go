package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/revisjon/tavle/internal/adapters/backend/sqlite"
	"github.com/revisjon/tavle/internal/adapters/server"
	"github.com/revisjon/tavle/internal/app"
	"github.com/revisjon/tavle/internal/board"
	"github.com/revisjon/tavle/internal/config"
	"github.com/revisjon/tavle/internal/domain"
	"github.com/revisjon/tavle/internal/platform"
	"github.com/revisjon/tavle/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("tavle", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		dbPath     string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAVLE_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TAVLE_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = platform.DefaultAppName
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&dbPath, "db", "", "path to sqlite database")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "tavle %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
		_, _ = fmt.Fprintf(stdout, "log: %s\n", paths.LogPath)
		return nil
	case "", "serve", "seed":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	dbOverridden := strings.TrimSpace(dbPath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TAVLE_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TAVLE_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	// The TUI owns the terminal, so its runtime log goes to a file. Other
	// commands log to stderr.
	logPath := strings.TrimSpace(cfg.Logging.File)
	if logPath == "" {
		logPath = paths.LogPath
	}
	logger, closeLog, err := newRuntimeLogger(stderr, logPath, appName, cfg.Logging.Level, command == "")
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	defer func() {
		if closeErr := closeLog(); closeErr != nil {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	logger.Info("configuration loaded", "config_path", configPath, "company_id", cfg.Company.ID, "log_level", cfg.Logging.Level)

	columns, err := cfg.Columns()
	if err != nil {
		return fmt.Errorf("resolve board columns: %w", err)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path, time.Now)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	svc := app.NewService(repo, repo, repo, uuid.NewString, time.Now, logger, app.ServiceConfig{
		CompanyID: cfg.Company.ID,
		ActorID:   cfg.Company.ActorID,
	})
	logger.Debug("application service initialized", "company_id", cfg.Company.ID, "actor_id", cfg.Company.ActorID)

	switch command {
	case "":
		logger.Info("command flow start", "command", "tui")
	case "serve":
		logger.Info("command flow start", "command", "serve")
		if err := runServe(ctx, svc, fs.Args()[1:], appName, cfg.Server); err != nil {
			logger.Error("command flow failed", "command", "serve", "err", err)
			return fmt.Errorf("run serve command: %w", err)
		}
		logger.Info("command flow complete", "command", "serve")
		return nil
	case "seed":
		logger.Info("command flow start", "command", "seed")
		if err := runSeed(ctx, repo, fs.Args()[1:], cfg.Company, stdout); err != nil {
			logger.Error("command flow failed", "command", "seed", "err", err)
			return fmt.Errorf("run seed command: %w", err)
		}
		logger.Info("command flow complete", "command", "seed")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	m := tui.New(
		svc,
		columns,
		logger,
		tui.WithShowWIPWarnings(cfg.Board.ShowWIPWarnings),
		tui.WithSensor(board.Sensor{
			ActivationDistance: cfg.Sensor.ActivationDistance,
			TouchDelay:         time.Duration(cfg.Sensor.TouchDelayMS) * time.Millisecond,
		}),
	)
	logger.Info("starting tui program loop")
	_, err = programFactory(m).Run()
	if err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runServe starts the MCP HTTP transport and blocks until shutdown.
func runServe(ctx context.Context, svc *app.Service, args []string, appName string, serverCfg config.ServerConfig) error {
	fs := flag.NewFlagSet("tavle serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		httpBind    string
		mcpEndpoint string
	)
	fs.StringVar(&httpBind, "http", serverCfg.Listen, "HTTP listen address")
	fs.StringVar(&mcpEndpoint, "mcp-endpoint", serverCfg.EndpointPath, "MCP streamable HTTP endpoint")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse serve flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected serve arguments: %v", fs.Args())
	}

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(signalCtx, server.Config{
		HTTPBind:      httpBind,
		MCPEndpoint:   mcpEndpoint,
		ServerName:    appName,
		ServerVersion: version,
	}, server.Dependencies{
		Board: svc,
	})
}

// runSeed populates a fresh database with demo users and tasks.
func runSeed(ctx context.Context, repo *sqlite.Repository, args []string, companyCfg config.CompanyConfig, stdout io.Writer) error {
	fs := flag.NewFlagSet("tavle seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var companyID string
	fs.StringVar(&companyID, "company", companyCfg.ID, "tenant company id to seed")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse seed flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected seed arguments: %v", fs.Args())
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return fmt.Errorf("--company is required")
	}

	users := []app.User{
		{ID: uuid.NewString(), Email: "kari@firma.no", Role: domain.RoleOwner},
		{ID: uuid.NewString(), Email: "ola@firma.no", Role: domain.RoleEmployee},
		{ID: uuid.NewString(), Email: "ingrid@firma.no", Role: domain.RoleEmployee},
	}
	for _, u := range users {
		if err := repo.CreateUser(ctx, companyID, u); err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}

	now := time.Now()
	due := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}
	seeds := []struct {
		input    domain.TaskInput
		assignee int
	}{
		{
			input: domain.TaskInput{
				Title: "VAT return Q2", Description: "Compile and file the bi-monthly VAT return.",
				ClientID: "client-nordvik", BoardColumn: domain.ColumnInProgress, BoardOrder: 0,
				Priority: domain.PriorityUrgent, Tags: []string{"vat"}, DueDate: due(3),
				IsStatutory: true, StatutoryType: "vat_return",
			},
			assignee: 0,
		},
		{
			input: domain.TaskInput{
				Title: "Payroll run August", Description: "Run payroll and submit the employer report.",
				ClientID: "client-nordvik", BoardColumn: domain.ColumnInProgress, BoardOrder: 1,
				Priority: domain.PriorityHigh, Tags: []string{"payroll"}, DueDate: due(5),
				IsStatutory: true, StatutoryType: "payroll_report",
			},
			assignee: 1,
		},
		{
			input: domain.TaskInput{
				Title: "Annual accounts 2025", Description: "Draft the annual accounts for board approval.",
				ClientID: "client-bakke", BoardColumn: domain.ColumnTodo, BoardOrder: 0,
				Priority: domain.PriorityHigh, Tags: []string{"year-end"}, DueDate: due(30),
				IsStatutory: true, StatutoryType: "annual_accounts",
			},
			assignee: 0,
		},
		{
			input: domain.TaskInput{
				Title: "Reconcile bank statements", Description: "Match July bank transactions against the ledger.",
				ClientID: "client-bakke", BoardColumn: domain.ColumnTodo, BoardOrder: 1,
				Priority: domain.PriorityMedium, Tags: []string{"bookkeeping"},
			},
			assignee: 2,
		},
		{
			input: domain.TaskInput{
				Title: "Chase missing receipts", Description: "Client still owes receipts for three card purchases.",
				ClientID: "client-nordvik", BoardColumn: domain.ColumnTodo, BoardOrder: 2,
				Priority: domain.PriorityLow, Tags: []string{"bookkeeping"},
			},
			assignee: -1,
		},
		{
			input: domain.TaskInput{
				Title: "Onboard Fjellstad AS", Description: "Collect engagement letter and prior-year balances.",
				ClientID: "client-fjellstad", BoardColumn: domain.ColumnBacklog, BoardOrder: 0,
				Priority: domain.PriorityMedium, Tags: []string{"onboarding"},
			},
			assignee: -1,
		},
		{
			input: domain.TaskInput{
				Title: "Review expense policy draft", Description: "Comment on the updated travel expense policy.",
				ClientID: "client-bakke", BoardColumn: domain.ColumnReview, BoardOrder: 0,
				Priority: domain.PriorityMedium, Tags: []string{"advisory"}, DueDate: due(7),
			},
			assignee: 1,
		},
		{
			input: domain.TaskInput{
				Title: "Shareholder register update", Description: "Registered the new share issue with the authorities.",
				ClientID: "client-nordvik", BoardColumn: domain.ColumnCompleted, BoardOrder: 0,
				Priority: domain.PriorityMedium, Tags: []string{"statutory"},
				IsStatutory: true, StatutoryType: "shareholder_register",
			},
			assignee: 2,
		},
	}

	for _, seed := range seeds {
		seed.input.ID = uuid.NewString()
		seed.input.CompanyID = companyID
		seed.input.CreatedBy = companyCfg.ActorID
		task, err := domain.NewTask(seed.input, now)
		if err != nil {
			return fmt.Errorf("build seed task %q: %w", seed.input.Title, err)
		}
		if seed.assignee >= 0 {
			u := users[seed.assignee]
			if err := task.Assign(u.ID, u.Email, u.Role, now); err != nil {
				return fmt.Errorf("assign seed task %q: %w", seed.input.Title, err)
			}
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("create seed task %q: %w", seed.input.Title, err)
		}
	}

	_, _ = fmt.Fprintf(stdout, "seeded %d tasks and %d users for company %s\n", len(seeds), len(users), companyID)
	return nil
}

// newRuntimeLogger builds the charm logger for this run. TUI runs log to the
// file sink only; every other command logs styled text to stderr. The
// returned closer releases the file sink.
func newRuntimeLogger(stderr io.Writer, logPath, appName, levelName string, tuiMode bool) (*charmLog.Logger, func() error, error) {
	if strings.TrimSpace(levelName) == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, nil, fmt.Errorf("parse logging level %q: %w", levelName, err)
	}

	noClose := func() error { return nil }
	if !tuiMode {
		logger := charmLog.NewWithOptions(stderr, charmLog.Options{
			Level:           level,
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       charmLog.TextFormatter,
		})
		return logger, noClose, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	// Keep file output parseable and unstyled.
	logger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	return logger, logFile.Close, nil
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
