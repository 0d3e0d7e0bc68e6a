package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Generator generates Lua configuration code from Go structs.
type Generator struct {
	indent string
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
	}
}

// Generate generates Lua code from a Config struct.
// The output is formatted and human-readable, and round-trips through
// the parser.
func (g *Generator) Generate(config *Config) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("-- dotstrap configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(time.Now().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString("dotstrap = {\n")

	if config.Meta.Name != "" || config.Meta.Description != "" {
		g.writeMeta(&buf, config.Meta)
	}

	if len(config.Packages) > 0 {
		g.writePackages(&buf, config.Packages)
	}

	g.writeInventory(&buf, config.Inventory)
	g.writePlaybook(&buf, config.Playbook)

	if config.Dotfiles.Repo != "" {
		g.writeDotfiles(&buf, config.Dotfiles)
	}

	g.writeShell(&buf, config.Shell)

	if config.Options.JournalRetention > 0 || config.Options.SkipUpgrade {
		g.writeOptions(&buf, config.Options)
	}

	buf.WriteString("}\n")

	return buf.String(), nil
}

func (g *Generator) writeMeta(buf *bytes.Buffer, meta Meta) {
	buf.WriteString(g.indent + "meta = {\n")
	if meta.Name != "" {
		g.writeField(buf, 2, "name", g.quoteLuaString(meta.Name))
	}
	if meta.Description != "" {
		g.writeField(buf, 2, "description", g.quoteLuaString(meta.Description))
	}
	buf.WriteString(g.indent + "},\n\n")
}

func (g *Generator) writePackages(buf *bytes.Buffer, packages []string) {
	buf.WriteString(g.indent + "packages = {\n")
	for _, pkg := range packages {
		buf.WriteString(g.indent + g.indent)
		buf.WriteString(g.quoteLuaString(pkg))
		buf.WriteString(",\n")
	}
	buf.WriteString(g.indent + "},\n\n")
}

func (g *Generator) writeInventory(buf *bytes.Buffer, inv Inventory) {
	buf.WriteString(g.indent + "inventory = {\n")
	g.writeField(buf, 2, "path", g.quoteLuaString(inv.Path))
	g.writeField(buf, 2, "host", g.quoteLuaString(inv.Host))
	g.writeField(buf, 2, "connection", g.quoteLuaString(inv.Connection))
	if inv.Group != "" {
		g.writeField(buf, 2, "group", g.quoteLuaString(inv.Group))
	}
	if inv.WorldWritable {
		g.writeField(buf, 2, "world_writable", "true")
	}
	buf.WriteString(g.indent + "},\n\n")
}

func (g *Generator) writePlaybook(buf *bytes.Buffer, pb Playbook) {
	buf.WriteString(g.indent + "playbook = {\n")
	g.writeField(buf, 2, "path", g.quoteLuaString(pb.Path))
	g.writeField(buf, 2, "ask_become_pass", fmt.Sprintf("%t", pb.AskBecomePass))
	buf.WriteString(g.indent + "},\n\n")
}

func (g *Generator) writeDotfiles(buf *bytes.Buffer, df Dotfiles) {
	buf.WriteString(g.indent + "dotfiles = {\n")
	g.writeField(buf, 2, "repo", g.quoteLuaString(df.Repo))
	if df.Branch != "" {
		g.writeField(buf, 2, "branch", g.quoteLuaString(df.Branch))
	}
	buf.WriteString(g.indent + "},\n\n")
}

func (g *Generator) writeShell(buf *bytes.Buffer, sh Shell) {
	buf.WriteString(g.indent + "shell = {\n")
	g.writeField(buf, 2, "aliases", fmt.Sprintf("%t", sh.Aliases))
	if sh.ZellijAutostart {
		g.writeField(buf, 2, "zellij_autostart", "true")
	}
	buf.WriteString(g.indent + "},\n\n")
}

func (g *Generator) writeOptions(buf *bytes.Buffer, options Options) {
	buf.WriteString(g.indent + "options = {\n")
	if options.JournalRetention > 0 {
		g.writeField(buf, 2, "journal_retention", fmt.Sprintf("%d", options.JournalRetention))
	}
	if options.SkipUpgrade {
		g.writeField(buf, 2, "skip_upgrade", "true")
	}
	buf.WriteString(g.indent + "},\n")
}

// writeField writes "key = value,\n" at the given indent depth.
func (g *Generator) writeField(buf *bytes.Buffer, depth int, key, value string) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(key)
	buf.WriteString(" = ")
	buf.WriteString(value)
	buf.WriteString(",\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
