package cmd

import (
	"fmt"

	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ensemblelab/rolecheck/verify"
)

// initCmd: rolecheck init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new checker configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := initConfigurationFile(cfgFile)
		if err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return
		}
		fmt.Printf("Configuration file created/updated: %s\n", path)
	},
}

func initConfigurationFile(configurationPath string) (string, error) {
	if configurationPath == "" {
		configurationPath = ".rolecheck.yaml"
	}

	// Create a yaml file with the default solver and name rules
	config := verify.Config{
		Name: "rolecheck",
		Solver: verify.SolverConfig{
			Kind: "syntactic",
		},
		Names: verify.NamesConfig{
			MotionPrefix: "m_",
			MsgPrefix:    "msg_",
		},
	}
	d, err := yaml.Marshal(config)
	if err != nil {
		return "", err
	}

	f, err := os.Create(configurationPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = f.Write(d)
	if err != nil {
		return "", err
	}

	return configurationPath, nil
}
