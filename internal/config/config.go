// Package config loads the run configuration from flags, GitHub Actions
// inputs (INPUT_* environment variables) and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/freelosync/internal/core/identity"
	"github.com/example/freelosync/internal/models"
)

// Option keys. Each is also the flag name and, upper-cased behind the
// INPUT_ prefix, the Actions input variable.
const (
	KeyEmail         = "email"
	KeyAPIKey        = "api-key"
	KeyProjectID     = "project-id"
	KeyTaskID        = "task-id"
	KeyTasklistID    = "tasklist-id"
	KeyGitHubToken   = "github-token"
	KeyCreateUnknown = "create-tasks-for-unknown"
	KeySyncComments  = "sync-comments"
	KeyUserMap       = "user-map"
	KeyBotLogin      = "bot-login"
	KeyFreeloAPIURL  = "freelo-api-url"
	KeyFreeloAppURL  = "freelo-app-url"
	KeyGitHubAPIURL  = "github-api-url"
	KeyRepository    = "repository"
	KeyEventName     = "event-name"
	KeyEventPath     = "event-path"
	KeyConcurrency   = "concurrency"
	KeyRateLimit     = "rate-limit"
	KeyTimeout       = "timeout"
	KeyDryRun        = "dry-run"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
)

// EnvPrefix is the prefix GitHub Actions puts in front of action inputs.
const EnvPrefix = "INPUT"

// Defaults
const (
	DefaultConcurrency = 4
	DefaultRateLimit   = 5.0
	DefaultTimeout     = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// runnerFallbacks are the variables the Actions runner sets itself.
var runnerFallbacks = map[string]string{
	KeyRepository:  "GITHUB_REPOSITORY",
	KeyEventName:   "GITHUB_EVENT_NAME",
	KeyEventPath:   "GITHUB_EVENT_PATH",
	KeyGitHubToken: "GITHUB_TOKEN",
}

var allKeys = []string{
	KeyEmail, KeyAPIKey, KeyProjectID, KeyTaskID, KeyTasklistID, KeyGitHubToken,
	KeyCreateUnknown, KeySyncComments, KeyUserMap, KeyBotLogin,
	KeyFreeloAPIURL, KeyFreeloAppURL, KeyGitHubAPIURL,
	KeyRepository, KeyEventName, KeyEventPath,
	KeyConcurrency, KeyRateLimit, KeyTimeout, KeyDryRun, KeyLogLevel, KeyLogFormat,
}

// Config is the resolved configuration of one run.
type Config struct {
	Email       string
	APIKey      string
	ProjectID   int64
	TaskID      int64
	TasklistID  int64
	GitHubToken string

	CreateUnknown bool
	SyncComments  bool

	UserMap string
	// BotLogin authors tracking comments. Empty means the github-token owner.
	BotLogin string

	FreeloAPIURL string
	FreeloAppURL string
	GitHubAPIURL string

	Repository string
	EventName  string
	EventPath  string

	Concurrency int
	RateLimit   float64
	Timeout     time.Duration
	DryRun      bool

	LogLevel  string
	LogFormat string
	// RunnerDebug is set when the Actions runner has debug logging on.
	RunnerDebug bool
}

// RegisterFlags defines every option on fs. Flags override the environment
// once bound with Bind.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyEmail, "", "Freelo account email")
	fs.String(KeyAPIKey, "", "Freelo API key")
	fs.String(KeyProjectID, "", "Freelo project id")
	fs.String(KeyTaskID, "", "create subtasks under this Freelo task")
	fs.String(KeyTasklistID, "", "create tasks in this Freelo task list")
	fs.String(KeyGitHubToken, "", "GitHub token")
	fs.Bool(KeyCreateUnknown, false, "reconcile: create tasks for open issues without one")
	fs.Bool(KeySyncComments, false, "reconcile: mirror comments that are not mirrored yet")
	fs.String(KeyUserMap, identity.DefaultPath, "GitHub login to Freelo user id mapping file")
	fs.String(KeyBotLogin, "", "login that posts tracking comments (default: the github-token owner)")
	fs.String(KeyFreeloAPIURL, "", "Freelo API base URL")
	fs.String(KeyFreeloAppURL, "", "Freelo web app URL used in task links")
	fs.String(KeyGitHubAPIURL, "", "GitHub API base URL")
	fs.String(KeyRepository, "", "repository as owner/name")
	fs.String(KeyEventName, "", "triggering event name")
	fs.String(KeyEventPath, "", "path to the event payload")
	fs.Int(KeyConcurrency, DefaultConcurrency, "issues reconciled in parallel")
	fs.Float64(KeyRateLimit, DefaultRateLimit, "Freelo requests per second (0 disables)")
	fs.Duration(KeyTimeout, DefaultTimeout, "timeout of one HTTP call")
	fs.Bool(KeyDryRun, false, "plan and log mutations without executing them")
	fs.String(KeyLogLevel, DefaultLogLevel, "debug, info, warn or error")
	fs.String(KeyLogFormat, DefaultLogFormat, "text or json")
}

// New returns a viper instance with defaults and environment bindings.
// Each key is read from INPUT_<KEY> as Actions spells it (hyphens kept) and
// from the underscore form, then from the runner variable where one exists.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	v.SetDefault(KeyUserMap, identity.DefaultPath)
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyRateLimit, DefaultRateLimit)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)

	for _, key := range allKeys {
		upper := strings.ToUpper(key)
		names := []string{key, EnvPrefix + "_" + upper}
		if underscored := strings.ReplaceAll(upper, "-", "_"); underscored != upper {
			names = append(names, EnvPrefix+"_"+underscored)
		}
		if fallback, ok := runnerFallbacks[key]; ok {
			names = append(names, fallback)
		}
		_ = v.BindEnv(names...)
	}
	return v
}

// Bind makes the flags in fs take precedence over the environment. Only
// flags set on the command line override; unset flags fall through.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if !isKey(f.Name) || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(f.Name, f)
	})
	return bindErr
}

// LoadDotenv loads .env from the working directory when present.
func LoadDotenv() {
	_ = godotenv.Load()
}

// Load resolves a Config from v. Malformed numbers are configuration
// errors; missing values are left for Validate.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Email:         strings.TrimSpace(v.GetString(KeyEmail)),
		APIKey:        strings.TrimSpace(v.GetString(KeyAPIKey)),
		GitHubToken:   strings.TrimSpace(v.GetString(KeyGitHubToken)),
		CreateUnknown: v.GetBool(KeyCreateUnknown),
		SyncComments:  v.GetBool(KeySyncComments),
		UserMap:       v.GetString(KeyUserMap),
		BotLogin:      v.GetString(KeyBotLogin),
		FreeloAPIURL:  v.GetString(KeyFreeloAPIURL),
		FreeloAppURL:  v.GetString(KeyFreeloAppURL),
		GitHubAPIURL:  v.GetString(KeyGitHubAPIURL),
		Repository:    v.GetString(KeyRepository),
		EventName:     v.GetString(KeyEventName),
		EventPath:     v.GetString(KeyEventPath),
		Concurrency:   v.GetInt(KeyConcurrency),
		RateLimit:     v.GetFloat64(KeyRateLimit),
		Timeout:       v.GetDuration(KeyTimeout),
		DryRun:        v.GetBool(KeyDryRun),
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:     strings.ToLower(v.GetString(KeyLogFormat)),
		RunnerDebug:   os.Getenv("RUNNER_DEBUG") == "1",
	}

	var err error
	if cfg.ProjectID, err = parseID(v, KeyProjectID); err != nil {
		return nil, err
	}
	if cfg.TaskID, err = parseID(v, KeyTaskID); err != nil {
		return nil, err
	}
	if cfg.TasklistID, err = parseID(v, KeyTasklistID); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateCredentials checks the options every remote call needs.
func (c *Config) ValidateCredentials() error {
	missing := []string{}
	if c.Email == "" {
		missing = append(missing, KeyEmail)
	}
	if c.APIKey == "" {
		missing = append(missing, KeyAPIKey)
	}
	if c.GitHubToken == "" {
		missing = append(missing, KeyGitHubToken)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", models.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if c.Repository == "" {
		return fmt.Errorf("%w: %s", models.ErrMissingCredentials, KeyRepository)
	}
	return nil
}

// Validate checks everything a sync run needs: credentials, a project and
// exactly one of task-id and tasklist-id, plus sane tuning values.
func (c *Config) Validate() error {
	if err := c.ValidateCredentials(); err != nil {
		return err
	}
	if c.ProjectID <= 0 {
		return fmt.Errorf("%w: %s", models.ErrMissingCredentials, KeyProjectID)
	}
	if c.TaskID > 0 && c.TasklistID > 0 {
		return models.ErrAmbiguousTarget
	}
	if c.TaskID <= 0 && c.TasklistID <= 0 {
		return models.ErrMissingTarget
	}
	return c.validateTuning()
}

func (c *Config) validateTuning() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: %s must be at least 1", models.ErrConfiguration, KeyConcurrency)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: %s must not be negative", models.ErrConfiguration, KeyRateLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", models.ErrConfiguration, KeyTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %s must be text or json, got %q", models.ErrConfiguration, KeyLogFormat, c.LogFormat)
	}
	return nil
}

// Parent returns where new tasks are created.
func (c *Config) Parent() models.ParentSelector {
	if c.TaskID > 0 {
		return models.ParentSelector{Kind: models.ParentTask, ProjectID: c.ProjectID, ID: c.TaskID}
	}
	if c.TasklistID > 0 {
		return models.ParentSelector{Kind: models.ParentTasklist, ProjectID: c.ProjectID, ID: c.TasklistID}
	}
	return models.ParentSelector{ProjectID: c.ProjectID}
}

// Level returns the log level, debug when the runner asks for it.
func (c *Config) Level() (slog.Level, error) {
	if c.RunnerDebug {
		return slog.LevelDebug, nil
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown %s %q", models.ErrConfiguration, KeyLogLevel, c.LogLevel)
}

func parseID(v *viper.Viper, key string) (int64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", models.ErrConfiguration, key, raw)
	}
	return id, nil
}

func isKey(name string) bool {
	for _, k := range allKeys {
		if k == name {
			return true
		}
	}
	return false
}
