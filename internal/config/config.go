// Package config loads the optional HCL configuration file shared by the
// serve, mcp and convert commands.
//
// A file looks like:
//
//	log_level  = "debug"
//	log_format = "json"
//
//	server {
//	  listen           = ":8080"
//	  max_body_bytes   = 10485760
//	  read_timeout     = "15s"
//	  write_timeout    = "30s"
//	  shutdown_timeout = "10s"
//	}
//
//	output {
//	  indent          = 2
//	  csv_delimiter   = ";"
//	  escape_formulas = true
//	  border          = "ascii"
//	}
//
// Every attribute and block is optional; missing values keep their defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bjaus/xmlconv"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the resolved configuration.
type Config struct {
	LogLevel  string
	LogFormat string
	Server    Server
	Output    Output
}

// Server holds the HTTP service settings.
type Server struct {
	Listen          string
	MaxBodyBytes    int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Output holds rendering defaults applied to every conversion.
type Output struct {
	Indent         int
	CSVDelimiter   string
	EscapeFormulas bool
	Border         string
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Server: Server{
			Listen:          ":8080",
			MaxBodyBytes:    10 << 20,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Output: Output{
			Indent:       2,
			CSVDelimiter: ",",
			Border:       "rounded",
		},
	}
}

// hclFile mirrors the file layout. Pointers tell absent attributes apart from
// zero values.
type hclFile struct {
	LogLevel  *string    `hcl:"log_level,optional"`
	LogFormat *string    `hcl:"log_format,optional"`
	Server    *hclServer `hcl:"server,block"`
	Output    *hclOutput `hcl:"output,block"`
}

type hclServer struct {
	Listen          *string `hcl:"listen,optional"`
	MaxBodyBytes    *int64  `hcl:"max_body_bytes,optional"`
	ReadTimeout     *string `hcl:"read_timeout,optional"`
	WriteTimeout    *string `hcl:"write_timeout,optional"`
	ShutdownTimeout *string `hcl:"shutdown_timeout,optional"`
}

type hclOutput struct {
	Indent         *int    `hcl:"indent,optional"`
	CSVDelimiter   *string `hcl:"csv_delimiter,optional"`
	EscapeFormulas *bool   `hcl:"escape_formulas,optional"`
	Border         *string `hcl:"border,optional"`
}

// Load reads the HCL file at path on top of [Defaults] and validates the
// result. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	return decode(f, path)
}

// Parse decodes HCL source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}
	return decode(f, filename)
}

func decode(f *hcl.File, filename string) (Config, error) {
	var raw hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}
	cfg := Defaults()
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", filename, err)
	}
	return cfg, nil
}

func (raw *hclFile) apply(cfg *Config) error {
	set(&cfg.LogLevel, raw.LogLevel)
	set(&cfg.LogFormat, raw.LogFormat)
	if s := raw.Server; s != nil {
		set(&cfg.Server.Listen, s.Listen)
		set(&cfg.Server.MaxBodyBytes, s.MaxBodyBytes)
		durations := []struct {
			name string
			src  *string
			dst  *time.Duration
		}{
			{"read_timeout", s.ReadTimeout, &cfg.Server.ReadTimeout},
			{"write_timeout", s.WriteTimeout, &cfg.Server.WriteTimeout},
			{"shutdown_timeout", s.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		}
		for _, d := range durations {
			if d.src == nil {
				continue
			}
			v, err := time.ParseDuration(*d.src)
			if err != nil {
				return fmt.Errorf("server.%s: %w", d.name, err)
			}
			*d.dst = v
		}
	}
	if o := raw.Output; o != nil {
		set(&cfg.Output.Indent, o.Indent)
		set(&cfg.Output.CSVDelimiter, o.CSVDelimiter)
		set(&cfg.Output.EscapeFormulas, o.EscapeFormulas)
		set(&cfg.Output.Border, o.Border)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", c.LogFormat))
	}
	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen must not be empty"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Output.Indent < 0 || c.Output.Indent > 8 {
		errs = append(errs, fmt.Errorf("output.indent %d out of range 0..8", c.Output.Indent))
	}
	if _, err := delimiter(c.Output.CSVDelimiter); err != nil {
		errs = append(errs, err)
	}
	if _, err := xmlconv.ParseBorder(c.Output.Border); err != nil {
		errs = append(errs, fmt.Errorf("output.border: %w", err))
	}
	return errors.Join(errs...)
}

func delimiter(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("output.csv_delimiter %q must be a single character", s)
	}
	switch r {
	case '"', '\r', '\n':
		return 0, fmt.Errorf("output.csv_delimiter %q is not allowed", s)
	}
	return r, nil
}

// Options translates the output block into conversion options. It assumes
// c has been validated.
func (c Config) Options() []xmlconv.Option {
	opts := []xmlconv.Option{xmlconv.WithIndent(strings.Repeat(" ", c.Output.Indent))}
	if r, err := delimiter(c.Output.CSVDelimiter); err == nil {
		opts = append(opts, xmlconv.WithDelimiter(r))
	}
	if b, err := xmlconv.ParseBorder(c.Output.Border); err == nil {
		opts = append(opts, xmlconv.WithBorder(b))
	}
	if c.Output.EscapeFormulas {
		opts = append(opts, xmlconv.WithFormulaEscape())
	}
	return opts
}
