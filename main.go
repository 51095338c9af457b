package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	env "github.com/xyproto/env/v2"
)

// main.go - soda: convert an ELF shared object into an ELF relocatable
// object file.
//
// The cobra root command implements spec.md §6's CLI contract exactly:
// positional <input>, -o/--output, repeatable -v, plus --config for the
// optional YAML options file (SPEC_FULL.md §4.9). Output-file lifecycle
// (create before running passes, delete on any failure) is adapted from
// xyproto/flapc's own temp-file compile-then-rename pattern in
// main.go/cli.go (compile to a scratch file, only keep it on success).

var versionString = "soda 0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		outputPath   string
		configPath   string
		verbosity    int
		envConfig    = env.Str("SODA_CONFIG", "")
		envVerbosity = env.Int("SODA_VERBOSITY", 0)
	)

	cmd := &cobra.Command{
		Use:     "soda <input>",
		Short:   "Convert an ELF shared object into an ELF relocatable object file",
		Version: versionString,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// pflag's CountVarP always starts counting from zero, so an
			// env-derived default can only apply when -v was never passed.
			if !cmd.Flags().Changed("verbose") {
				verbosity = envVerbosity
			}
			InitLogging(verbosity)

			if !cmd.Flags().Changed("config") {
				configPath = envConfig
			}
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			input := args[0]
			if outputPath == "" {
				outputPath = DefaultOutputPath(input)
			}

			return runConvert(input, outputPath, cfg)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output relocatable object path (default derived from input name)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML file overriding conversion options")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "raise log verbosity (repeatable): -v info, -vv debug, -vvv trace")

	return cmd
}

// runConvert reads input, runs the conversion pipeline, and atomically
// publishes the result at outputPath. The output file is created before
// the pipeline runs and removed on any failure, per spec.md §6's
// output-file lifecycle requirement.
func runConvert(input, outputPath string, cfg *Config) (err error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading input %q: %w", input, err)
	}

	ctx, err := NewContext(data)
	if err != nil {
		return fmt.Errorf("parsing input %q: %w", input, err)
	}

	outDir := filepath.Dir(outputPath)
	tmp, err := os.CreateTemp(outDir, "soda-"+uuid.NewString()+"-*.o.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary output file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	output, err := Convert(ctx, cfg)
	if err != nil {
		return fmt.Errorf("converting %q: %w", input, err)
	}

	if _, err = output.WriteTo(tmp); err != nil {
		return fmt.Errorf("writing output object: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary output file: %w", err)
	}

	if err = os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("publishing output to %q: %w", outputPath, err)
	}

	return nil
}
