package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/dball/topograph/internal/config"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	Flags *flag.FlagSet

	// Usage is the usage string shown after "topograph" in help. It starts with the
	// command name.
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Exec runs the command after flags are parsed.
	Exec func(env *Env, args []string) error
}

// Env is what commands run with.
type Env struct {
	Out    io.Writer
	ErrOut io.Writer
	Config config.Config
}

func (env *Env) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(env.Out, format, a...)
}

func (env *Env) Println(a ...any) {
	_, _ = fmt.Fprintln(env.Out, a...)
}

// Name returns the command name.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-24s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "topograph <cmd> --help".
func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: topograph", c.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.Short)
	if c.Flags != nil && c.Flags.HasFlags() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		fmt.Fprint(w, buf.String())
	}
}

// Run parses flags and executes the command. Returns exit code.
func (c *Command) Run(env *Env, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})
	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(env.Out)
			return 0
		}
		fmt.Fprintln(env.ErrOut, "error:", err)
		fmt.Fprintln(env.ErrOut)
		c.PrintHelp(env.ErrOut)
		return 1
	}
	if err := c.Exec(env, c.Flags.Args()); err != nil {
		fmt.Fprintln(env.ErrOut, "error:", err)
		return 1
	}
	return 0
}
