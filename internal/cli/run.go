// Package cli implements the topograph command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/dball/topograph/internal/config"
)

var (
	ErrArgs          = errors.New("wrong number of arguments")
	ErrUnknownFormat = errors.New("format must be text, json, or yaml")
)

func commands() []*Command {
	return []*Command{
		initCommand(),
		transactCommand(),
		schemaCommand(),
		exportCommand(),
		logCommand(),
		statsCommand(),
	}
}

func printUsage(w io.Writer, cmds []*Command) {
	fmt.Fprintln(w, "Usage: topograph [--config FILE] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range cmds {
		fmt.Fprintln(w, cmd.HelpLine())
	}
}

// Run is the main entry point. Returns exit code.
func Run(out io.Writer, errOut io.Writer, args []string) int {
	global := flag.NewFlagSet("topograph", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(&strings.Builder{})
	configPath := global.StringP("config", "c", "", "config file (.json, .jsonc, .yaml, .yml, or .toml)")
	cmds := commands()
	err := global.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(out, cmds)
		return 0
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		printUsage(errOut, cmds)
		return 1
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(out, cmds)
		return 0
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	env := &Env{Out: out, ErrOut: errOut, Config: cfg}
	for _, cmd := range cmds {
		if cmd.Name() == rest[0] {
			return cmd.Run(env, rest[1:])
		}
	}
	fmt.Fprintln(errOut, "error: unknown command:", rest[0])
	printUsage(errOut, cmds)
	return 1
}
