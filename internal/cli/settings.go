package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tdewaele/bilaudit/internal/model"
	"github.com/tdewaele/bilaudit/internal/provider"
	"github.com/tdewaele/bilaudit/internal/rules"
	"github.com/tdewaele/bilaudit/internal/seed"
	"github.com/tdewaele/bilaudit/internal/store"
)

// Settings is the application configuration, resolved from defaults,
// the config file and BILAUDIT_* environment variables.
type Settings struct {
	Server struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	} `mapstructure:"server" yaml:"server"`
	Store struct {
		Driver string `mapstructure:"driver" yaml:"driver"` // memory or sqlite
		Path   string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"store" yaml:"store"`
	Data struct {
		Dir string `mapstructure:"dir" yaml:"dir"`
	} `mapstructure:"data" yaml:"data"`
	Rules struct {
		Path string `mapstructure:"path" yaml:"path"` // empty: <data.dir>/scoring_rules.yaml
	} `mapstructure:"rules" yaml:"rules"`
	Audit struct {
		Workers int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"audit" yaml:"audit"`
	OpenAI struct {
		Model             string  `mapstructure:"model" yaml:"model"`
		BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	} `mapstructure:"openai" yaml:"openai"`
}

// DefaultSettings returns the built-in configuration
func DefaultSettings() Settings {
	var s Settings
	s.Server.Addr = ":5000"
	s.Store.Driver = "memory"
	s.Store.Path = "bilaudit.db"
	s.Data.Dir = "data"
	s.Audit.Workers = 2
	s.OpenAI.Model = "gpt-4o-mini"
	s.OpenAI.RequestsPerSecond = 1
	return s
}

func loadSettings() (Settings, error) {
	d := DefaultSettings()
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("store.driver", d.Store.Driver)
	viper.SetDefault("store.path", d.Store.Path)
	viper.SetDefault("data.dir", d.Data.Dir)
	viper.SetDefault("rules.path", d.Rules.Path)
	viper.SetDefault("audit.workers", d.Audit.Workers)
	viper.SetDefault("openai.model", d.OpenAI.Model)
	viper.SetDefault("openai.requests_per_second", d.OpenAI.RequestsPerSecond)

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// bindStoreFlags binds a command's shared flags into viper. Done at run
// time because serve and audit declare flags with the same names, and
// an init-time bind from one command would shadow the other's.
func bindStoreFlags(cmd *cobra.Command) {
	for flagName, key := range map[string]string{
		"addr":  "server.addr",
		"store": "store.driver",
		"db":    "store.path",
		"data":  "data.dir",
		"rules": "rules.path",
	} {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newServerLogger emits JSON for log aggregation; interactive commands
// use the text handler instead.
func newServerLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore creates the configured backend. The returned closer is a
// no-op for the in-memory store.
func openStore(s Settings, log *slog.Logger) (store.Store, func(), error) {
	switch s.Store.Driver {
	case "sqlite":
		db, err := store.OpenSQLite(s.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("opened sqlite store", "path", s.Store.Path)
		return db, func() { _ = db.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}

// loadRules reads the scoring rule file, falling back to the built-in
// defaults when absent.
func loadRules(s Settings) *rules.Config {
	path := s.Rules.Path
	if path == "" {
		path = filepath.Join(s.Data.Dir, "scoring_rules.yaml")
	}
	return rules.Load(path)
}

func buildProviderConfig(s Settings, log *slog.Logger) provider.Config {
	overrides := make(map[model.ProviderID]map[string]provider.Response)
	for _, id := range []model.ProviderID{model.ProviderMockBaseline, model.ProviderMockAfter} {
		if m := seed.LoadMockAnswers(s.Data.Dir, id, log); m != nil {
			overrides[id] = m
		}
	}
	return provider.Config{
		MockOverrides:     overrides,
		APIKey:            os.Getenv("OPENAI_API_KEY"),
		Model:             s.OpenAI.Model,
		BaseURL:           s.OpenAI.BaseURL,
		RequestsPerSecond: s.OpenAI.RequestsPerSecond,
	}
}
