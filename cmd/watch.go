package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ensemblelab/rolecheck/formatter"
	tt "github.com/ensemblelab/rolecheck/internal/types"
	"github.com/ensemblelab/rolecheck/verify"
)

var watchTrace bool

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-check scenario files whenever they change",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"."}
		}

		engine, err := verify.New(cfgFile, logger)
		if err != nil {
			logger.Fatal("Failed to initialize check engine", zap.Error(err))
		}

		if watchTrace {
			engine.SetTrace(true)
		}

		engine.OnResult = func(path string, verdicts []tt.Verdict) {
			fmt.Printf("\n%s changed:\n", path)
			fmt.Print(formatter.GenerateFormattedVerdicts(verdicts))
			fmt.Println(formatter.Summary(verdicts))
		}

		if err := engine.StartWatching(args); err != nil {
			logger.Fatal("Failed to start watching", zap.Error(err))
		}

		fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", strings.Join(args, ", "))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		if err := engine.StopWatching(); err != nil {
			logger.Error("Failed to stop watching", zap.Error(err))
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchTrace, "trace", false, "Record which pairs each fixpoint pass removed")
}
