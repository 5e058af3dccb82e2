// Package config loads the settings shared by every tickets command.
//
// Sources, lowest to highest precedence: built-in defaults, a YAML file,
// a .env file, then TICKETS_* environment variables. Command-line flags are
// applied by the caller after Load returns. The merged result is checked
// against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/massmirchi/tickets/internal/sheet"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TICKETS_"

// Store backends.
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config is the full tickets configuration.
type Config struct {
	// Credentials is the Google service account JSON key file, used for
	// both the spreadsheet and Firestore.
	Credentials string `yaml:"credentials" json:"credentials"`

	Sheet  SheetConfig  `yaml:"sheet" json:"sheet"`
	Mail   MailConfig   `yaml:"mail" json:"mail"`
	Event  EventConfig  `yaml:"event" json:"event"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Server ServerConfig `yaml:"server" json:"server"`

	// TicketsDir receives the rendered QR code images.
	TicketsDir string `yaml:"tickets_dir" json:"tickets_dir"`

	// TemplatesDir overrides the built-in email templates when set.
	TemplatesDir string `yaml:"templates_dir" json:"templates_dir"`
}

// SheetConfig selects the row source. CSV takes precedence over ID.
type SheetConfig struct {
	ID      string            `yaml:"id" json:"id"`
	Tab     string            `yaml:"tab" json:"tab"`
	CSV     string            `yaml:"csv" json:"csv"`
	Headers sheet.HeaderNames `yaml:"headers" json:"headers"`
}

// MailConfig is the outgoing SMTP account.
type MailConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	From string `yaml:"from" json:"from"`

	// Username defaults to From.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// Timeout is a Go duration string.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// EventConfig names the event tickets are issued for.
type EventConfig struct {
	// Name keys the store and analytics.
	Name string `yaml:"name" json:"name"`

	// Title is shown in emails. Defaults to Name.
	Title     string `yaml:"title" json:"title"`
	Organizer string `yaml:"organizer" json:"organizer"`
}

// StoreConfig selects the ticket store backend.
type StoreConfig struct {
	Backend          string `yaml:"backend" json:"backend"`
	SQLitePath       string `yaml:"sqlite_path" json:"sqlite_path"`
	FirestoreProject string `yaml:"firestore_project" json:"firestore_project"`
}

// ServerConfig configures the verification API.
type ServerConfig struct {
	Listen      string   `yaml:"listen" json:"listen"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`

	// APIToken is the bearer token for the analytics route. Empty disables
	// the route.
	APIToken string `yaml:"api_token" json:"api_token"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sheet: SheetConfig{
			Tab:     "Sheet1",
			Headers: sheet.DefaultHeaderNames(),
		},
		Mail: MailConfig{
			Host:    "smtp.gmail.com",
			Port:    465,
			Timeout: "30s",
		},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "tickets.db",
		},
		Server: ServerConfig{
			Listen:      ":8080",
			CORSOrigins: []string{"*"},
		},
		TicketsDir: "tickets",
	}
}

// Options controls where Load looks.
type Options struct {
	// File is an optional YAML file. Missing is an error when set.
	File string

	// DotEnv is an optional .env file. Missing is not an error.
	DotEnv string

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load merges defaults, the YAML file, the .env file and the environment.
// The result is not validated; call Validate after applying flags.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
	}

	dotenv := map[string]string{}
	if opts.DotEnv != "" {
		m, err := godotenv.Read(opts.DotEnv)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", opts.DotEnv, err)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) (string, bool) {
		if v := getenv(EnvPrefix + key); v != "" {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok && v != ""
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"CREDENTIALS":       &c.Credentials,
		"SHEET_ID":          &c.Sheet.ID,
		"SHEET_TAB":         &c.Sheet.Tab,
		"SHEET_CSV":         &c.Sheet.CSV,
		"MAIL_HOST":         &c.Mail.Host,
		"MAIL_FROM":         &c.Mail.From,
		"MAIL_USERNAME":     &c.Mail.Username,
		"MAIL_PASSWORD":     &c.Mail.Password,
		"MAIL_TIMEOUT":      &c.Mail.Timeout,
		"EVENT_NAME":        &c.Event.Name,
		"EVENT_TITLE":       &c.Event.Title,
		"EVENT_ORGANIZER":   &c.Event.Organizer,
		"STORE_BACKEND":     &c.Store.Backend,
		"SQLITE_PATH":       &c.Store.SQLitePath,
		"FIRESTORE_PROJECT": &c.Store.FirestoreProject,
		"LISTEN":            &c.Server.Listen,
		"API_TOKEN":         &c.Server.APIToken,
		"TICKETS_DIR":       &c.TicketsDir,
		"TEMPLATES_DIR":     &c.TemplatesDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("MAIL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAIL_PORT: %w", EnvPrefix, err)
		}
		c.Mail.Port = port
	}
	if v, ok := lookup("CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}
	return nil
}

// Validate checks c against the embedded schema and the rules CUE does not
// express.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	if c.Server.CORSOrigins == nil {
		c.Server.CORSOrigins = []string{}
	}
	val := def.Unify(ctx.Encode(c))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}

	if _, err := c.MailTimeout(); err != nil {
		return &ValidationError{Details: fmt.Sprintf("mail.timeout: %v", err)}
	}
	return nil
}

// RequireSheet checks that a row source is configured.
func (c Config) RequireSheet() error {
	if c.Sheet.ID == "" && c.Sheet.CSV == "" {
		return &ValidationError{Details: "sheet: one of id or csv is required"}
	}
	if c.Sheet.CSV == "" && c.Credentials == "" {
		return &ValidationError{Details: "credentials: required to read a Google sheet"}
	}
	return nil
}

// RequireMail checks that outgoing mail can authenticate.
func (c Config) RequireMail() error {
	switch {
	case c.Mail.From == "":
		return &ValidationError{Details: "mail.from: sender address is required"}
	case c.Mail.Password == "":
		return &ValidationError{Details: "mail.password: sender secret is required (set " + EnvPrefix + "MAIL_PASSWORD)"}
	}
	return nil
}

// ValidationError reports a config that does not satisfy the schema.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.TrimSpace(e.Details)
}

// MailTimeout parses Mail.Timeout. Empty means zero.
func (c Config) MailTimeout() (time.Duration, error) {
	if c.Mail.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Mail.Timeout)
}

// EventTitle returns Event.Title, falling back to Event.Name.
func (c Config) EventTitle() string {
	if c.Event.Title != "" {
		return c.Event.Title
	}
	return c.Event.Name
}

// MailUsername returns Mail.Username, falling back to Mail.From.
func (c Config) MailUsername() string {
	if c.Mail.Username != "" {
		return c.Mail.Username
	}
	return c.Mail.From
}
