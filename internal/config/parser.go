package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/vellumlabs/dotstrap/internal/platform"
)

// Parser parses Lua configs with platform detection injected.
type Parser struct {
	detector platform.Detector
	log      Logger
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector skips platform injection; configs that reference the
// platform table will then fail to parse.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, log: discardLogger{}}
}

// SetLogger replaces the parser's logger. A nil logger restores the
// no-op default.
func (p *Parser) SetLogger(log Logger) {
	if log == nil {
		log = discardLogger{}
	}
	p.log = log
}

// ParseFile parses a Lua config from a file on disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseString parses a Lua config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
		p.log.Debug("platform injected", "os", platformInfo.OS, "family", platformInfo.Family)
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig extracts the config from a Lua state.
// It expects a global "dotstrap" table with the config structure.
func extractConfig(L *lua.LState) (*Config, error) {
	root := L.GetGlobal(luaGlobalDotstrap)
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'dotstrap' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	config := &Config{}
	table := root.(*lua.LTable)

	if metaVal := table.RawGetString(luaFieldMeta); metaVal.Type() == lua.LTTable {
		config.Meta = extractMeta(metaVal.(*lua.LTable))
	}

	if pkgVal := table.RawGetString(luaFieldPackages); pkgVal.Type() == lua.LTTable {
		config.Packages = extractPackages(pkgVal.(*lua.LTable))
	}

	if invVal := table.RawGetString(luaFieldInventory); invVal.Type() == lua.LTTable {
		config.Inventory = extractInventory(invVal.(*lua.LTable))
	}

	if pbVal := table.RawGetString(luaFieldPlaybook); pbVal.Type() == lua.LTTable {
		config.Playbook = extractPlaybook(pbVal.(*lua.LTable))
	}

	if dfVal := table.RawGetString(luaFieldDotfiles); dfVal.Type() == lua.LTTable {
		config.Dotfiles = extractDotfiles(dfVal.(*lua.LTable))
	}

	if shVal := table.RawGetString(luaFieldShell); shVal.Type() == lua.LTTable {
		config.Shell = extractShell(shVal.(*lua.LTable))
	}

	if optVal := table.RawGetString(luaFieldOptions); optVal.Type() == lua.LTTable {
		config.Options = extractOptions(optVal.(*lua.LTable))
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return config, nil
}

func extractMeta(table *lua.LTable) Meta {
	meta := Meta{}
	if nameVal := table.RawGetString(luaFieldName); nameVal.Type() == lua.LTString {
		meta.Name = nameVal.String()
	}
	if descVal := table.RawGetString(luaFieldDesc); descVal.Type() == lua.LTString {
		meta.Description = descVal.String()
	}
	return meta
}

// extractPackages extracts the packages array, skipping nil entries left
// by platform conditionals like platform.when(platform.is_arch_family, "zellij").
func extractPackages(table *lua.LTable) []string {
	var packages []string
	table.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTString {
			return
		}
		packages = append(packages, value.String())
	})
	return packages
}

func extractInventory(table *lua.LTable) Inventory {
	inv := Inventory{}
	if v := table.RawGetString(luaFieldPath); v.Type() == lua.LTString {
		inv.Path = v.String()
	}
	if v := table.RawGetString(luaFieldHost); v.Type() == lua.LTString {
		inv.Host = v.String()
	}
	if v := table.RawGetString(luaFieldConnection); v.Type() == lua.LTString {
		inv.Connection = v.String()
	}
	if v := table.RawGetString(luaFieldGroup); v.Type() == lua.LTString {
		inv.Group = v.String()
	}
	if v := table.RawGetString(luaFieldWorldWrite); v.Type() == lua.LTBool {
		inv.WorldWritable = bool(v.(lua.LBool))
	}
	return inv
}

func extractPlaybook(table *lua.LTable) Playbook {
	pb := Playbook{AskBecomePass: true}
	if v := table.RawGetString(luaFieldPath); v.Type() == lua.LTString {
		pb.Path = v.String()
	}
	if v := table.RawGetString(luaFieldAskBecome); v.Type() == lua.LTBool {
		pb.AskBecomePass = bool(v.(lua.LBool))
	}
	return pb
}

func extractDotfiles(table *lua.LTable) Dotfiles {
	df := Dotfiles{}
	if v := table.RawGetString(luaFieldRepo); v.Type() == lua.LTString {
		df.Repo = v.String()
	}
	if v := table.RawGetString(luaFieldBranch); v.Type() == lua.LTString {
		df.Branch = v.String()
	}
	return df
}

func extractShell(table *lua.LTable) Shell {
	sh := Shell{}
	if v := table.RawGetString(luaFieldAliases); v.Type() == lua.LTBool {
		sh.Aliases = bool(v.(lua.LBool))
	}
	if v := table.RawGetString(luaFieldAutostart); v.Type() == lua.LTBool {
		sh.ZellijAutostart = bool(v.(lua.LBool))
	}
	return sh
}

func extractOptions(table *lua.LTable) Options {
	options := Options{}
	if v := table.RawGetString(luaFieldJournalKeep); v.Type() == lua.LTNumber {
		options.JournalRetention = int(lua.LVAsNumber(v))
	}
	if v := table.RawGetString(luaFieldSkipUpgrade); v.Type() == lua.LTBool {
		options.SkipUpgrade = bool(v.(lua.LBool))
	}
	return options
}

// FormatError formats a ParseError for user display.
// In verbose mode the raw Lua error is shown; otherwise the traceback
// is trimmed to the relevant line.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
