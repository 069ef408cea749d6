package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bjaus/xmlconv"
	"github.com/bjaus/xmlconv/internal/config"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitUsage    = 2
	ExitNoData   = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// FromError maps a conversion error to an exit code. Bad input is a usage
// error and a document without records exits with [ExitNoData].
func FromError(err error) *ExitError {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr
	case errors.Is(err, xmlconv.ErrNoData):
		return &ExitError{Code: ExitNoData, Message: "No valid data to convert."}
	case errors.Is(err, xmlconv.ErrParse),
		errors.Is(err, xmlconv.ErrUnsupportedFormat),
		errors.Is(err, xmlconv.ErrUnsupportedInput),
		errors.Is(err, xmlconv.ErrInvalidTemplate):
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	default:
		return &ExitError{Code: ExitInternal, Message: err.Error()}
	}
}

// Command names a subcommand.
type Command string

const (
	CommandConvert Command = "convert"
	CommandServe   Command = "serve"
	CommandMCP     Command = "mcp"
)

// Invocation is a parsed command line.
type Invocation struct {
	Command Command
	Config  config.Config

	// The remaining fields are set for convert only.
	Format  xmlconv.Format
	Input   xmlconv.Input
	File    string // "" or "-" reads stdin
	Options []xmlconv.Option
}

// Parse processes command-line arguments. It returns the invocation, a
// boolean reporting that the program should exit cleanly (help was printed),
// or an *ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	cmd := CommandConvert
	if len(args) > 0 {
		switch Command(args[0]) {
		case CommandConvert, CommandServe, CommandMCP:
			cmd, args = Command(args[0]), args[1:]
		case "help":
			printUsage(output)
			return nil, true, nil
		}
	}
	switch cmd {
	case CommandServe:
		return parseServe(args, output)
	case CommandMCP:
		return parseMCP(args, output)
	default:
		return parseConvert(args, output)
	}
}

func printUsage(output io.Writer) {
	fmt.Fprint(output, `
xmlconv - Convert XML, JSON and YAML documents to JSON, YAML and flat tables.

Usage:
  xmlconv [convert] [options] [FILE]
  xmlconv serve [options]
  xmlconv mcp [options]

Run 'xmlconv <command> -h' for the options of a command.
`)
}

func newFlagSet(name, usage string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags runs fs.Parse and translates its outcome.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return false, nil
}

// visited returns the names of the flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return cfg, nil
}

func validate(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return nil
}

// --- convert ---

const convertUsage = `
Convert a document and write the result to stdout.

Usage:
  xmlconv [convert] [options] [FILE]

Arguments:
  FILE
    Document to convert. Reads stdin when omitted or "-".

Options:
`

func parseConvert(args []string, output io.Writer) (*Invocation, bool, error) {
	fs := newFlagSet("convert", convertUsage, output)
	formatFlag := fs.String("f", "json", "Output format: "+formatNames()+" or go-template=<template>.")
	inputFlag := fs.String("i", "", "Input format: xml, json or yaml. Inferred from the file extension, else xml.")
	configFlag := fs.String("config", "", "Path to an HCL configuration file.")
	indentFlag := fs.Int("indent", 2, "Spaces of JSON and YAML indentation. 0 renders compact JSON.")
	delimiterFlag := fs.String("delimiter", ",", "CSV field delimiter.")
	borderFlag := fs.String("border", "rounded", "Table border: rounded, none, ascii, heavy or double.")
	escapeFlag := fs.Bool("escape-formulas", false, "Prefix CSV and TSV cells that start a spreadsheet formula with a quote.")
	titleFlag := fs.String("title", "", "Title above table output and HTML caption.")
	numberFlag := fs.String("row-numbers", "", "Prepend a row number column with this header to table, markdown and html output.")
	maxWidthFlag := fs.Int("max-width", 0, "Truncate table cells wider than this. 0 is unlimited.")

	if exit, err := parseFlags(fs, args); exit || err != nil {
		return nil, exit, err
	}
	if fs.NArg() > 1 {
		return nil, false, &ExitError{Code: ExitUsage, Message: "at most one FILE argument is allowed"}
	}

	format, err := xmlconv.ParseFormat(*formatFlag)
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	inv := &Invocation{Command: CommandConvert, Format: format, File: fs.Arg(0)}
	inv.Input, err = inputFor(*inputFlag, inv.File)
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		return nil, false, err
	}
	set := visited(fs)
	if set["indent"] {
		cfg.Output.Indent = *indentFlag
	}
	if set["delimiter"] {
		cfg.Output.CSVDelimiter = *delimiterFlag
	}
	if set["border"] {
		cfg.Output.Border = *borderFlag
	}
	if set["escape-formulas"] {
		cfg.Output.EscapeFormulas = *escapeFlag
	}
	if err := validate(cfg); err != nil {
		return nil, false, err
	}
	if *maxWidthFlag < 0 {
		return nil, false, &ExitError{Code: ExitUsage, Message: "max-width must not be negative"}
	}
	inv.Config = cfg

	inv.Options = cfg.Options()
	if *titleFlag != "" {
		inv.Options = append(inv.Options, xmlconv.WithTitle(*titleFlag))
	}
	if *numberFlag != "" {
		inv.Options = append(inv.Options, xmlconv.WithRowNumbers(*numberFlag))
	}
	if *maxWidthFlag > 0 {
		inv.Options = append(inv.Options, xmlconv.WithMaxWidth(*maxWidthFlag))
	}
	inv.Options = append(inv.Options, xmlconv.WithInput(inv.Input))
	return inv, false, nil
}

func formatNames() string {
	names := make([]string, 0, len(xmlconv.Formats()))
	for _, f := range xmlconv.Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// inputFor resolves the input format from the flag or the file extension.
func inputFor(flagValue, file string) (xmlconv.Input, error) {
	if flagValue != "" {
		return xmlconv.ParseInput(flagValue)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return xmlconv.JSONInput, nil
	case ".yaml", ".yml":
		return xmlconv.YAMLInput, nil
	default:
		return xmlconv.XMLInput, nil
	}
}

// --- serve ---

const serveUsage = `
Serve conversions over HTTP.

Usage:
  xmlconv serve [options]

Options:
`

func parseServe(args []string, output io.Writer) (*Invocation, bool, error) {
	fs := newFlagSet("serve", serveUsage, output)
	configFlag := fs.String("config", "", "Path to an HCL configuration file.")
	listenFlag := fs.String("listen", ":8080", "Address to listen on.")
	logLevelFlag := fs.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if exit, err := parseFlags(fs, args); exit || err != nil {
		return nil, exit, err
	}
	if fs.NArg() > 0 {
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		return nil, false, err
	}
	set := visited(fs)
	if set["listen"] {
		cfg.Server.Listen = *listenFlag
	}
	if set["log-level"] {
		cfg.LogLevel = strings.ToLower(*logLevelFlag)
	}
	if set["log-format"] {
		cfg.LogFormat = strings.ToLower(*logFormatFlag)
	}
	if err := validate(cfg); err != nil {
		return nil, false, err
	}
	return &Invocation{Command: CommandServe, Config: cfg}, false, nil
}

// --- mcp ---

const mcpUsage = `
Serve conversion tools over the Model Context Protocol on stdio.

Usage:
  xmlconv mcp [options]

Options:
`

func parseMCP(args []string, output io.Writer) (*Invocation, bool, error) {
	fs := newFlagSet("mcp", mcpUsage, output)
	configFlag := fs.String("config", "", "Path to an HCL configuration file.")
	logLevelFlag := fs.String("log-level", "info", "Set the logging level. Logs go to stderr.")

	if exit, err := parseFlags(fs, args); exit || err != nil {
		return nil, exit, err
	}
	if fs.NArg() > 0 {
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		return nil, false, err
	}
	if visited(fs)["log-level"] {
		cfg.LogLevel = strings.ToLower(*logLevelFlag)
	}
	if err := validate(cfg); err != nil {
		return nil, false, err
	}
	return &Invocation{Command: CommandMCP, Config: cfg}, false, nil
}
