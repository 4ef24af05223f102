package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"travelnotes/internal/config"
	"travelnotes/internal/exitcode"
	"travelnotes/internal/notebook"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "travelnotes help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range DefaultRegistry.All() {
		synopsis := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			synopsis += " (also: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-10s %s\n", cmd.Name(), synopsis)
	}
	return exitcode.Success
}

const helpText = `Usage:
  travelnotes                                        List notes
  travelnotes list [common flags] [--images]         List notes (with photo details)
  travelnotes show [common flags] [--image] <ref>
  travelnotes add [common flags] [--description <text>] [--image <file>] <name...>
  travelnotes create [common flags] [--description <text>] [--image <file>] <name...>
  travelnotes attach [common flags] <ref> <file>
  travelnotes photo [common flags] [--output <file>] <ref>
  travelnotes rm [common flags] <ref>
  travelnotes whoami [common flags]
  travelnotes login [common flags]
  travelnotes logout [common flags]
  travelnotes help
  travelnotes version

A <ref> is a note number from the list or a note ID (prefix).

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
