// Command fuzzbridge inspects fuzzbridge namespaces and verifies session
// manifests before a fuzzing run.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/fuzzbridge/application/schema"
	"github.com/reglet-dev/fuzzbridge/domain/entities"
	"github.com/reglet-dev/fuzzbridge/host"
	"github.com/reglet-dev/fuzzbridge/namespace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "fuzzbridge",
		Short:         "Attach WebAssembly guests as fuzzing components",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	root.AddCommand(newCheckCmd(&logLevel))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newContractsCmd())
	root.AddCommand(newNamespacesCmd(&logLevel))
	return root
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func newCheckCmd(logLevel *string) *cobra.Command {
	var vars map[string]string
	var lenient bool

	cmd := &cobra.Command{
		Use:   "check <session.yaml>",
		Short: "Load a session and attach every guest without fuzzing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), *logLevel)
			if err != nil {
				return err
			}
			ctx := context.Background()

			rt, err := host.NewRuntime(ctx, host.WithLogger(logger))
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			loader := host.NewLoader(
				host.WithStrictTemplates(!lenient),
				host.WithPresetValidator(rt.PresetValidator()),
			)
			manifest, err := loader.LoadFile(args[0], templateVars(vars))
			if err != nil {
				return err
			}

			sess, err := rt.Open(ctx, manifest, host.WithBaseDir(filepath.Dir(args[0])))
			if err != nil {
				return err
			}
			defer sess.Close(ctx)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "session %s: %d guests\n", sess.Name(), len(manifest.Guests))
			_, _ = fmt.Fprintf(out, "  observers: %s\n", joinOrNone(sess.Observers().Names()))
			_, _ = fmt.Fprintf(out, "  feedbacks: %d\n", len(sess.Feedbacks()))
			_, _ = fmt.Fprintf(out, "  executors: %d\n", len(sess.Executors()))
			_, _ = fmt.Fprintf(out, "  mutators: %d\n", len(sess.Mutators()))
			_, _ = fmt.Fprintf(out, "  stages: %d\n", len(sess.Stages()))
			if manifest.Preset != nil {
				_, _ = fmt.Fprintf(out, "  preset: %s\n", manifest.Preset.Kind)
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "template variable key=value, reachable as {{.config.key}}")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "render missing template keys instead of failing")
	return cmd
}

func templateVars(vars map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <session|preset-kind>",
		Short: "Print the JSON schema of session manifests or of a preset configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "session" {
				b, err := schema.SessionSchema()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			kind := entities.PresetKind(args[0])
			if !isPresetKind(kind) {
				return fmt.Errorf("unknown schema %q: want session or one of %v", args[0], entities.PresetKinds())
			}
			b, err := schema.PresetSchema(kind)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func isPresetKind(kind entities.PresetKind) bool {
	for _, k := range entities.PresetKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func newContractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "Print the five capability contracts as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := schema.ContractsDocument()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newNamespacesCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "namespaces",
		Short: "Register every namespace and list its host functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), *logLevel)
			if err != nil {
				return err
			}
			mod := namespace.New(namespace.WithLogger(logger))
			if err := mod.Register(context.Background()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range mod.Paths() {
				ns, _ := mod.Lookup(path)
				_, _ = fmt.Fprintf(out, "%s\n", path)
				for _, fn := range ns.Functions() {
					_, _ = fmt.Fprintf(out, "  %s\n", fn)
				}
				for _, class := range ns.Classes() {
					_, _ = fmt.Fprintf(out, "  class %s (%s)\n", class.Name, class.Capability)
				}
			}
			return nil
		},
	}
}
