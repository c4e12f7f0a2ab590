package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fanyeren/sipstat"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap"
)

// Build metadata injected via ldflags. When built without ldflags (e.g.,
// plain `go build`), these remain at their zero values and the version
// command omits them gracefully.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	root := &cobra.Command{
		Use:   "sipstat",
		Short: "System Integrity Protection status for macOS",
		Long: `sipstat resolves the macOS System Integrity Protection (SIP) policy.

It reports the configuration enforced by the running kernel alongside the
configuration persisted to NVRAM for the next boot, one row per policy flag.
Use it for host diagnostics, CI gating, or fleet compliance audits.`,
		SilenceUsage: true,
	}

	root.AddCommand(statusCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(nvramCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// StatusOptions defines flags for the status subcommand.
type StatusOptions struct {
	JSON    bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	Verbose bool `flag:"verbose" flagshort:"v" flagdescr:"Log environment diagnostics to stderr"`
}

func (o *StatusOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func statusCmd() *cobra.Command {
	opts := &StatusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Resolve and display the SIP policy",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			st, err := sipstat.Resolve(resolveOptions(opts.Verbose)...)
			if err != nil {
				return err
			}

			if opts.JSON {
				return printJSON(st.Observations)
			}

			fmt.Print(st)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	Protected flagSelection `flag:"protected" flagshort:"r" flagdescr:"Flags whose operations must be restricted (see available flags above)" flagcustom:"true"`
	Full      bool          `flag:"full" flagshort:"f" flagdescr:"Require the aggregate policy fully enabled"`
	Policy    string        `flag:"policy" flagshort:"p" flagdescr:"Path to a YAML policy file"`
	JSON      bool          `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	Verbose   bool          `flag:"verbose" flagshort:"v" flagdescr:"Log environment diagnostics to stderr"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *CheckOptions) DefineProtected(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*flagSelection)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *CheckOptions) DecodeProtected(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseFlagSelection(s)
}

func checkCmd() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the SIP policy against compliance requirements",
		Long:  checkLongDescription(),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			requirements, err := buildRequirements(opts)
			if err != nil {
				return err
			}
			if len(requirements) == 0 {
				return fmt.Errorf("no requirements specified")
			}

			st, err := sipstat.Resolve(resolveOptions(opts.Verbose)...)
			if err != nil {
				return err
			}

			err = sipstat.CheckStatus(st, requirements...)
			if err != nil {
				var pe *sipstat.PolicyError
				if errors.As(err, &pe) {
					if opts.JSON {
						return printJSON(map[string]any{
							"ok":     false,
							"flag":   pe.Flag,
							"reason": pe.Reason,
						})
					}
					fmt.Fprintf(os.Stderr, "FAIL: %s — %s\n", pe.Flag, pe.Reason)
					os.Exit(1)
				}
				return err
			}

			if opts.JSON {
				return printJSON(map[string]any{"ok": true})
			}
			fmt.Println("OK: all requirements satisfied")
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func buildRequirements(opts *CheckOptions) ([]sipstat.Requirement, error) {
	var requirements []sipstat.Requirement

	if opts.Policy != "" {
		policy, err := sipstat.LoadPolicy(opts.Policy)
		if err != nil {
			return nil, err
		}
		reqs, err := policy.Requirements()
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, reqs...)
	}

	if opts.Full {
		requirements = append(requirements, sipstat.RequireFullProtection)
	}
	for _, f := range opts.Protected {
		requirements = append(requirements, sipstat.RequireProtected(f))
	}

	return requirements, nil
}

// NVRAMOptions defines flags for the nvram subcommand.
type NVRAMOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *NVRAMOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func nvramCmd() *cobra.Command {
	opts := &NVRAMOptions{}

	cmd := &cobra.Command{
		Use:   "nvram",
		Short: "Display the persisted (next-boot) SIP configuration",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			persisted, err := sipstat.ReadPersisted()
			if err != nil {
				return err
			}

			if opts.JSON {
				out := map[string]any{"present": persisted.Present}
				if persisted.Present {
					out["raw"] = persisted.Raw
				}
				return printJSON(out)
			}

			if !persisted.Present {
				fmt.Println("csr-active-config: not set (default policy)")
				return nil
			}

			fmt.Printf("csr-active-config: 0x%08x\n", persisted.Raw)
			for _, def := range sipstat.Definitions() {
				set := "clear"
				if persisted.Raw&def.Bit != 0 {
					set = "set"
				}
				fmt.Printf("  %s: %s\n", def.Name, set)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool and OS version",
		RunE: func(c *cobra.Command, args []string) error {
			if version != "" {
				fmt.Printf("sipstat %s", version)
				if commit != "" {
					fmt.Printf(" (%s)", commit)
				}
				if date != "" {
					fmt.Printf(" built %s", date)
				}
				fmt.Println()
			} else {
				fmt.Println("sipstat (dev)")
			}

			st, err := sipstat.Resolve()
			if err != nil {
				return err
			}
			if st.OSVersion != (sipstat.OSVersion{}) {
				fmt.Printf("OS version: %s.%s\n", st.OSVersion.Major, st.OSVersion.Minor)
			}
			return nil
		},
	}
}

func resolveOptions(verbose bool) []sipstat.ResolveOption {
	if !verbose {
		return nil
	}
	return []sipstat.ResolveOption{
		sipstat.WithLogger(zap.Must(zap.NewDevelopment())),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func availableFlags() string {
	return strings.Join(sipstat.FlagNames(), ", ")
}

func checkLongDescription() string {
	return fmt.Sprintf(`Check that the SIP policy satisfies all requirements.
Exits with code 0 if all requirements are met, 1 if any are violated.

Available flags:
%s`, formatWrappedList(sipstat.FlagNames(), "  ", 80))
}

func formatWrappedList(items []string, indent string, maxWidth int) string {
	if len(items) == 0 {
		return indent + "(none)"
	}

	lines := make([]string, 0, len(items))
	line := indent
	for i, item := range items {
		token := item
		if i < len(items)-1 {
			token += ", "
		}

		if len(line)+len(token) > maxWidth && line != indent {
			lines = append(lines, strings.TrimRight(line, " "))
			line = indent + token
			continue
		}

		line += token
	}

	lines = append(lines, strings.TrimRight(line, " "))
	return strings.Join(lines, "\n")
}

type flagSelection []sipstat.Flag

var flagIdentifierMap = func() map[sipstat.Flag][]string {
	ids := make(map[sipstat.Flag][]string, len(sipstat.FlagValues()))
	for _, f := range sipstat.FlagValues() {
		ids[f] = []string{f.String()}
	}
	return ids
}()

func (r *flagSelection) String() string {
	names := make([]string, 0, len(*r))
	for _, f := range *r {
		names = append(names, f.String())
	}

	return strings.Join(names, ",")
}

func (r *flagSelection) Set(input string) error {
	flags, err := parseFlagSelection(input)
	if err != nil {
		return err
	}

	*r = append(*r, flags...)
	return nil
}

func (r *flagSelection) Type() string {
	return "flag"
}

func parseFlagSelection(input string) (flagSelection, error) {
	if strings.TrimSpace(input) == "" {
		return flagSelection{}, nil
	}

	parts := strings.Split(input, ",")
	flags := make(flagSelection, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		var flag sipstat.Flag
		enumValue := enumflag.New(&flag, "sipstat.Flag", flagIdentifierMap, enumflag.EnumCaseInsensitive)
		if err := enumValue.Set(name); err != nil {
			return nil, fmt.Errorf("unknown flag: %q (available: %s)", name, availableFlags())
		}

		flags = append(flags, flag)
	}

	return flags, nil
}
