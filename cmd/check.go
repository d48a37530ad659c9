package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ensemblelab/rolecheck/formatter"
	"github.com/ensemblelab/rolecheck/internal"
	tt "github.com/ensemblelab/rolecheck/internal/types"
	"github.com/ensemblelab/rolecheck/verify"
)

var (
	ignorePaths     string
	checkJsonOutput bool
	outPath         string
	traceRemovals   bool
	noCache         bool
	cacheDir        string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Run the refinement checks",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide scenario file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := verify.New(cfgFile, logger)
		if err != nil {
			logger.Fatal("Failed to initialize check engine", zap.Error(err))
		}

		if traceRemovals {
			engine.SetTrace(true)
		}

		if ignorePaths != "" {
			paths := strings.Split(ignorePaths, ",")
			for _, path := range paths {
				engine.IgnorePath(strings.TrimSpace(path))
			}
		}

		if !noCache {
			cache, err := internal.NewCache(cacheDir)
			if err != nil {
				logger.Warn("Verdict cache disabled", zap.Error(err))
			} else {
				if cfgFile != "" {
					// config changes must invalidate cached verdicts
					_ = cache.SetDependencies(cfgFile)
				}
				engine.SetCache(cache)
			}
		}

		runCheckProcess(ctx, logger, engine, args, checkJsonOutput, outPath)
	},
}

func init() {
	checkCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	checkCmd.Flags().BoolVar(&checkJsonOutput, "json", false, "Output verdicts in JSON format")
	checkCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	checkCmd.Flags().BoolVar(&traceRemovals, "trace", false, "Record which pairs each fixpoint pass removed")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the verdict cache")
	checkCmd.Flags().StringVar(&cacheDir, "cache-dir", ".rolecheck-cache", "Directory for the verdict cache")
}

func runCheckProcess(ctx context.Context, logger *zap.Logger, engine verify.CheckEngine, paths []string, isJson bool, jsonOutput string) {
	verdicts, err := verify.ProcessFiles(ctx, logger, engine, paths, verify.ProcessFile)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		os.Exit(1)
	}

	printVerdicts(logger, verdicts, isJson, jsonOutput)

	if hasFailure(verdicts) {
		os.Exit(1)
	}
}

func printVerdicts(logger *zap.Logger, verdicts []tt.Verdict, isJson bool, jsonOutput string) {
	if !isJson {
		// text output
		output := formatter.GenerateFormattedVerdicts(verdicts)
		fmt.Print(output)
		fmt.Println(formatter.Summary(verdicts))
	} else {
		// JSON output
		d, err := formatter.GenerateJSON(verdicts)
		if err != nil {
			logger.Error("Error marshalling verdicts to JSON", zap.Error(err))
			return
		}
		if jsonOutput == "" {
			fmt.Println(string(d))
		} else {
			f, err := os.Create(jsonOutput)
			if err != nil {
				logger.Error("Error creating JSON output file", zap.Error(err))
				return
			}
			defer f.Close()
			_, err = f.Write(d)
			if err != nil {
				logger.Error("Error writing JSON output file", zap.Error(err))
				return
			}
		}
	}
}

// hasFailure reports whether any verdict should fail the run. A verdict with
// an expectation fails only when the outcome disagrees with it, so scenarios
// that expect a violation still exit cleanly.
func hasFailure(verdicts []tt.Verdict) bool {
	for _, v := range verdicts {
		if v.Mismatch() {
			return true
		}
		if v.Expected == "" && v.Result != tt.ResultRefines {
			return true
		}
	}
	return false
}
