package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dball/topograph/internal/database"
	"github.com/dball/topograph/internal/schema"
	. "github.com/dball/topograph/internal/types"
)

func open(env *Env) (*database.Database, error) {
	logger := env.Config.Logger(env.ErrOut)
	return database.Open(env.Config.Database(logger))
}

// encode renders the value as json or yaml.
func encode(format string, v any) (data []byte, err error) {
	switch format {
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case "yaml":
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		err = encoder.Encode(v)
		if err == nil {
			err = encoder.Close()
		}
		data = buf.Bytes()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return
}

func render(env *Env, format string, v any, text func()) error {
	if format == "text" {
		text()
		return nil
	}
	data, err := encode(format, v)
	if err != nil {
		return err
	}
	_, err = env.Out.Write(data)
	return err
}

func initCommand() *Command {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	return &Command{
		Flags: flags,
		Usage: "init",
		Short: "Create the store and bootstrap the system attributes",
		Exec: func(env *Env, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: init takes none", ErrArgs)
			}
			db, err := open(env)
			if err != nil {
				return err
			}
			defer db.Close()
			env.Printf("initialized %s store with %s datums\n", env.Config.Engine, humanize.Comma(int64(db.Read().Len())))
			return nil
		},
	}
}

// txSummary is the printable outcome of a transaction.
type txSummary struct {
	Tx        ID                 `json:"tx" yaml:"tx"`
	TempIDs   map[TempID]ID      `json:"tempids,omitempty" yaml:"tempids,omitempty"`
	Installed []Ident            `json:"installed,omitempty" yaml:"installed,omitempty"`
	Altered   map[Ident][]string `json:"altered,omitempty" yaml:"altered,omitempty"`
	Idents    map[string]Ident   `json:"idents,omitempty" yaml:"idents,omitempty"`
}

func summarize(res database.Response) (summary txSummary) {
	topo := res.Snapshot.Topograph()
	name := func(e ID) Ident {
		if ident, ok := topo.LookupIdent(e); ok {
			return ident
		}
		return Ident(strconv.FormatUint(uint64(e), 10))
	}
	summary.Tx = res.ID
	summary.TempIDs = res.NewIDs
	for _, e := range res.Report.Installed() {
		summary.Installed = append(summary.Installed, name(e))
	}
	if len(res.Report.AttrsAltered) > 0 {
		summary.Altered = map[Ident][]string{}
		for _, e := range res.Report.Altered() {
			for _, alteration := range res.Report.AttrsAltered[e] {
				summary.Altered[name(e)] = append(summary.Altered[name(e)], alteration.String())
			}
		}
	}
	if len(res.Report.IdentsAltered) > 0 {
		summary.Idents = map[string]Ident{}
		for e, ident := range res.Report.IdentsAltered {
			summary.Idents[strconv.FormatUint(uint64(e), 10)] = ident
		}
	}
	return
}

func transactCommand() *Command {
	flags := flag.NewFlagSet("transact", flag.ContinueOnError)
	format := flags.StringP("format", "f", "text", "output format: text, json, or yaml")
	return &Command{
		Flags: flags,
		Usage: "transact FILE",
		Short: "Write the claims in a JSONC file in one transaction",
		Exec: func(env *Env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: transact takes a claims file", ErrArgs)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			db, err := open(env)
			if err != nil {
				return err
			}
			defer db.Close()
			claims, err := ParseClaims(db.Read().Topograph(), data)
			if err != nil {
				return err
			}
			res := db.Write(Request{Claims: claims})
			if res.Error != nil {
				return res.Error
			}
			summary := summarize(res)
			return render(env, *format, summary, func() {
				env.Printf("tx %d\n", summary.Tx)
				for tempID, e := range summary.TempIDs {
					env.Printf("  tempid %s = %d\n", tempID, e)
				}
				for _, ident := range summary.Installed {
					env.Printf("  installed %s\n", ident)
				}
				for ident, alterations := range summary.Altered {
					env.Printf("  altered %s: %s\n", ident, strings.Join(alterations, ", "))
				}
				for e, ident := range summary.Idents {
					env.Printf("  ident %s: %s\n", e, ident)
				}
			})
		},
	}
}

func describe(env *Env) ([]schema.AttrDescription, error) {
	db, err := open(env)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Read().Describe(), nil
}

func schemaCommand() *Command {
	flags := flag.NewFlagSet("schema", flag.ContinueOnError)
	format := flags.StringP("format", "f", "text", "output format: text, json, or yaml")
	return &Command{
		Flags: flags,
		Usage: "schema",
		Short: "Print the attributes",
		Exec: func(env *Env, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: schema takes none", ErrArgs)
			}
			descriptions, err := describe(env)
			if err != nil {
				return err
			}
			return render(env, *format, descriptions, func() {
				w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tIDENT\tTYPE\tCARDINALITY\tUNIQUE\tFLAGS")
				for _, d := range descriptions {
					var marks []string
					for _, mark := range []struct {
						name string
						on   bool
					}{{"index", d.Index}, {"fulltext", d.Fulltext}, {"component", d.Component}, {"nohistory", d.NoHistory}} {
						if mark.on {
							marks = append(marks, mark.name)
						}
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", uint64(d.ID), d.Ident, d.Type, d.Cardinality, d.Unique, strings.Join(marks, ","))
				}
				w.Flush()
			})
		},
	}
}

func exportCommand() *Command {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	format := flags.StringP("format", "f", "", "file format: json or yaml (default by extension)")
	return &Command{
		Flags: flags,
		Usage: "export FILE",
		Short: "Write the attributes to a file atomically",
		Exec: func(env *Env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: export takes a file", ErrArgs)
			}
			path := args[0]
			f := *format
			if f == "" {
				f = "json"
				switch strings.ToLower(filepath.Ext(path)) {
				case ".yaml", ".yml":
					f = "yaml"
				}
			}
			descriptions, err := describe(env)
			if err != nil {
				return err
			}
			data, err := encode(f, descriptions)
			if err != nil {
				return err
			}
			err = atomic.WriteFile(path, bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("export %s: %w", path, err)
			}
			env.Printf("exported %d attributes to %s\n", len(descriptions), path)
			return nil
		},
	}
}

func logCommand() *Command {
	flags := flag.NewFlagSet("log", flag.ContinueOnError)
	return &Command{
		Flags: flags,
		Usage: "log TX",
		Short: "Print the datums asserted and retracted by a transaction",
		Exec: func(env *Env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: log takes a transaction id", ErrArgs)
			}
			t, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}
			db, err := open(env)
			if err != nil {
				return err
			}
			defer db.Close()
			quads, err := db.Log(ID(t))
			if err != nil {
				return err
			}
			topo := db.Read().Topograph()
			for _, quad := range quads {
				op := "-"
				if quad.Added {
					op = "+"
				}
				a, ok := topo.LookupIdent(quad.A)
				if !ok {
					a = Ident(quad.A.String())
				}
				env.Printf("%s %d %s %v\n", op, uint64(quad.E), a, quad.V)
			}
			return nil
		},
	}
}

func statsCommand() *Command {
	flags := flag.NewFlagSet("stats", flag.ContinueOnError)
	return &Command{
		Flags: flags,
		Usage: "stats",
		Short: "Print the numbers of datums, entities, attributes, and idents",
		Exec: func(env *Env, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: stats takes none", ErrArgs)
			}
			db, err := open(env)
			if err != nil {
				return err
			}
			defer db.Close()
			snap := db.Read()
			topo := snap.Topograph()
			env.Printf("datums      %s\n", humanize.Comma(int64(snap.Len())))
			env.Printf("entities    %s\n", humanize.Comma(int64(snap.Entities())))
			env.Printf("attributes  %s\n", humanize.Comma(int64(len(topo.Attrs()))))
			env.Printf("idents      %s\n", humanize.Comma(int64(len(topo.Idents()))))
			env.Printf("components  %s\n", humanize.Comma(int64(len(topo.ComponentAttrs()))))
			return nil
		},
	}
}
