package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ensemblelab/rolecheck/internal/ast"
	"github.com/ensemblelab/rolecheck/internal/cfa"
	"github.com/ensemblelab/rolecheck/internal/scenario"
	"github.com/ensemblelab/rolecheck/scanner"
)

// variable for flags
var (
	participant string
	output      string
)

var cfaCmd = &cobra.Command{
	Use:   "cfa [paths...]",
	Short: "Export the control-flow automaton of a participant program",
	Long: `Outputs the control-flow automaton of a participant program in GraphViz DOT form.
Example) rolecheck cfa --participant Rover patrol.chor.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide scenario file paths")
			os.Exit(1)
		}
		runCFAExport(logger, args, participant, output)
	},
}

func init() {
	cfaCmd.Flags().StringVar(&participant, "participant", "", "Participant whose program to export (default: all)")
	cfaCmd.Flags().StringVarP(&output, "output", "o", "", "Output path for the DOT file")
}

func runCFAExport(logger *zap.Logger, paths []string, participant string, output string) {
	participantFound := false
	for _, path := range expandDirs(logger, paths) {
		sc, err := scenario.Load(path)
		if err != nil {
			logger.Error("Failed to load scenario", zap.String("path", path), zap.Error(err))
			continue
		}
		for i := range sc.Checks {
			check := &sc.Checks[i]
			if participant != "" && check.Participant != participant {
				continue
			}
			program, _, err := check.Build()
			if err != nil {
				logger.Error("Failed to build program",
					zap.String("path", path),
					zap.String("participant", check.Participant),
					zap.Error(err))
				continue
			}
			index := ast.AssignLabels(program)
			graph := cfa.Build(program)
			var buf strings.Builder
			graph.PrintDot(&buf, index)
			if output != "" {
				if err := os.WriteFile(output, []byte(buf.String()), 0o644); err != nil {
					logger.Error("Failed to write DOT file", zap.Error(err))
				} else {
					fmt.Printf("DOT file created: %s\n", output)
				}
				return
			}
			fmt.Printf("Control flow of %s in %s:\n%s\n", check.Participant, path, buf.String())
			participantFound = true
		}
	}

	if !participantFound && participant != "" {
		fmt.Printf("Participant not found: %s\n", participant)
	}
}

// expandDirs replaces directory arguments with the scenario files they
// contain. Plain file paths pass through untouched.
func expandDirs(logger *zap.Logger, paths []string) []string {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Error("Failed to access path", zap.String("path", path), zap.Error(err))
			continue
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		found, err := scanner.New(path, ".chor.yaml", ".chor.yml").Scan()
		if err != nil {
			logger.Error("Failed to scan directory", zap.String("path", path), zap.Error(err))
			continue
		}
		for _, f := range found {
			out = append(out, f.Path)
		}
	}
	return out
}
