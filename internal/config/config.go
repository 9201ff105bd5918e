package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/revisjon/tavle/internal/domain"
)

// Config is the full TOML-backed application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Company  CompanyConfig  `toml:"company"`
	Board    BoardConfig    `toml:"board"`
	Sensor   SensorConfig   `toml:"sensor"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CompanyConfig struct {
	ID      string `toml:"id"`
	ActorID string `toml:"actor_id"`
}

type BoardConfig struct {
	Columns         []ColumnConfig `toml:"columns"`
	ShowWIPWarnings bool           `toml:"show_wip_warnings"`
}

type ColumnConfig struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Color    string `toml:"color"`
	WIPLimit int    `toml:"wip_limit"`
}

// SensorConfig tunes gesture recognition: how many cells the pointer must
// travel before a press becomes a drag, and the press delay for touch.
type SensorConfig struct {
	ActivationDistance int `toml:"activation_distance"`
	TouchDelayMS       int `toml:"touch_delay_ms"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ServerConfig struct {
	Listen       string `toml:"listen"`
	EndpointPath string `toml:"endpoint_path"`
}

func defaultColumns() []ColumnConfig {
	out := make([]ColumnConfig, 0, 6)
	for _, c := range domain.DefaultColumns() {
		out = append(out, ColumnConfig{
			ID:       string(c.ID),
			Title:    c.Title,
			Color:    c.Color,
			WIPLimit: c.WIPLimit,
		})
	}
	return out
}

// Default returns the configuration used when no file overrides it.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{Path: dbPath},
		Company:  CompanyConfig{ID: "demo", ActorID: "demo-user"},
		Board: BoardConfig{
			Columns:         defaultColumns(),
			ShowWIPWarnings: true,
		},
		Sensor: SensorConfig{
			ActivationDistance: 1,
			TouchDelayMS:       250,
		},
		Logging: LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Listen:       "127.0.0.1:8722",
			EndpointPath: "/mcp",
		},
	}
}

// Load reads the config file, layering it over defaults. A missing file is
// not an error.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks field values and cross-field constraints.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	if strings.TrimSpace(c.Company.ID) == "" {
		return errors.New("company.id is required")
	}

	if len(c.Board.Columns) == 0 {
		return errors.New("board.columns must include at least one column")
	}
	seen := map[string]struct{}{}
	hasTodo := false
	for idx, column := range c.Board.Columns {
		id := strings.TrimSpace(strings.ToLower(column.ID))
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if !domain.ColumnID(id).Valid() {
			return fmt.Errorf("board.columns[%d].id references unknown column %q", idx, id)
		}
		if strings.TrimSpace(column.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if column.WIPLimit < 0 {
			return fmt.Errorf("board.columns[%d].wip_limit must be >= 0", idx)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, id)
		}
		seen[id] = struct{}{}
		if domain.ColumnID(id) == domain.ColumnTodo {
			hasTodo = true
		}
	}
	// Tasks with a missing or unknown column are grouped into todo, so the
	// board must always render it.
	if !hasTodo {
		return errors.New("board.columns must include the todo column")
	}

	if c.Sensor.ActivationDistance < 0 {
		return errors.New("sensor.activation_distance must be >= 0")
	}
	if c.Sensor.TouchDelayMS < 0 {
		return errors.New("sensor.touch_delay_ms must be >= 0")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// Columns converts the column configuration into domain columns.
func (c Config) Columns() ([]domain.Column, error) {
	out := make([]domain.Column, 0, len(c.Board.Columns))
	for idx, column := range c.Board.Columns {
		id := domain.ColumnID(strings.TrimSpace(strings.ToLower(column.ID)))
		col, err := domain.NewColumn(id, column.Title, column.Color, column.WIPLimit)
		if err != nil {
			return nil, fmt.Errorf("board.columns[%d]: %w", idx, err)
		}
		out = append(out, col)
	}
	return out, nil
}

// EnsureConfigDir creates the directory holding the config file.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
