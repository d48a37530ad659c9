package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ensemblelab/rolecheck/internal"
	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/refine"
	tt "github.com/ensemblelab/rolecheck/internal/types"
)

const maxShowRecentFiles = 25

// CheckEngine is the part of the engine the processing helpers rely on.
type CheckEngine interface {
	Run(filePath string) ([]tt.Verdict, error)
	RunSource(source []byte) ([]tt.Verdict, error)
	IgnorePath(path string)
}

// New builds an engine from a configuration file. An empty path means the
// built-in defaults.
func New(configurationPath string, logger *zap.Logger) (*internal.Engine, error) {
	config, err := LoadConfig(configurationPath)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(config, logger)
}

// NewFromConfig builds an engine from an already decoded configuration.
func NewFromConfig(config Config, logger *zap.Logger) (*internal.Engine, error) {
	solver, err := buildSolver(config.Solver)
	if err != nil {
		return nil, err
	}

	engine, err := internal.NewEngine(solver, config.Names.rules(), logger)
	if err != nil {
		return nil, err
	}
	engine.SetTrace(config.Trace)
	for _, path := range config.Ignore {
		engine.IgnorePath(path)
	}
	return engine, nil
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine CheckEngine,
	sources [][]byte,
	processor func(CheckEngine, []byte) ([]tt.Verdict, error),
) ([]tt.Verdict, error) {
	var allVerdicts []tt.Verdict
	for i, source := range sources {
		verdicts, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allVerdicts = append(allVerdicts, verdicts...)
	}

	return allVerdicts, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine CheckEngine,
	paths []string,
	processor func(CheckEngine, string) ([]tt.Verdict, error),
) ([]tt.Verdict, error) {
	var allVerdicts []tt.Verdict
	for _, path := range paths {
		verdicts, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allVerdicts = append(allVerdicts, verdicts...)
	}

	return allVerdicts, nil
}

type fileResult struct {
	verdicts []tt.Verdict
	err      error
}

func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine CheckEngine,
	path string,
	processor func(CheckEngine, string) ([]tt.Verdict, error),
) ([]tt.Verdict, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	var verdicts []tt.Verdict
	if info.IsDir() {
		var files []string
		filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fileInfo.IsDir() && hasDesiredExtension(filePath) {
				files = append(files, filePath)
			}
			return nil
		})

		// mutex for recent files
		var recentFilesMutex sync.Mutex
		recentFiles := make([]string, maxShowRecentFiles)

		// make space for recent files
		for range maxShowRecentFiles + 1 {
			fmt.Println()
		}
		fmt.Printf("\033[%dA", maxShowRecentFiles+1)

		resultChan := make(chan fileResult, len(files))

		// limit the number of workers
		maxWorkers := runtime.NumCPU()
		sem := make(chan struct{}, maxWorkers)

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription(path),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))

		// update recent files
		updateRecentFiles := func(filename string) {
			recentFilesMutex.Lock()
			defer recentFilesMutex.Unlock()

			// update the list
			for j := maxShowRecentFiles - 1; j > 0; j-- {
				recentFiles[j] = recentFiles[j-1]
			}
			recentFiles[0] = filename

			// move the cursor up
			fmt.Printf("\033[%dA", maxShowRecentFiles)

			// print the list
			for j := range recentFiles {
				if recentFiles[j] != "" {
					// \033[2k: clear the line
					// \r: move the cursor to the beginning of the line
					fmt.Printf("\033[2K\r%s\n", recentFiles[j])
				} else {
					fmt.Printf("\033[2K\r\n")
				}
			}
		}

		// for each file, run a goroutine
		for _, filePath := range files {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
				sem <- struct{}{}
				go func(fp string) {
					defer func() { <-sem }()

					// show the start of file processing
					updateRecentFiles(filepath.Base(fp))

					fileVerdicts, err := processor(engine, fp)
					if err != nil && logger != nil {
						logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
					}
					resultChan <- fileResult{verdicts: fileVerdicts, err: err}
					bar.Add(1)
				}(filePath)
			}
		}

		// collect all results
		for range files {
			result := <-resultChan
			if result.err != nil {
				continue
			}
			verdicts = append(verdicts, result.verdicts...)
		}

		fmt.Println()
		internal.SortVerdicts(verdicts)
		return verdicts, nil
	} else if hasDesiredExtension(path) {
		fileVerdicts, err := processor(engine, path)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, fileVerdicts...)
	}

	return verdicts, nil
}

func ProcessFile(engine CheckEngine, filePath string) ([]tt.Verdict, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine CheckEngine, source []byte) ([]tt.Verdict, error) {
	return engine.RunSource(source)
}

var desiredSuffixes = []string{".chor.yaml", ".chor.yml"}

func hasDesiredExtension(path string) bool {
	for _, suffix := range desiredSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Config represents the overall tool configuration.
type Config struct {
	Name   string       `yaml:"name"`
	Solver SolverConfig `yaml:"solver"`
	Names  NamesConfig  `yaml:"names"`
	Trace  bool         `yaml:"trace"`
	Ignore []string     `yaml:"ignore"`
}

// SolverConfig selects the guard implication backend.
type SolverConfig struct {
	Kind    string   `yaml:"kind"` // syntactic or process
	Path    string   `yaml:"path"`
	Args    []string `yaml:"args"`
	Logic   string   `yaml:"logic"`
	Timeout string   `yaml:"timeout"`
}

// NamesConfig overrides the naming relation between program and role
// identifiers.
type NamesConfig struct {
	MotionPrefix string `yaml:"motion_prefix"`
	MsgPrefix    string `yaml:"msg_prefix"`
}

func (n NamesConfig) rules() refine.NameRules {
	rules := refine.DefaultNames()
	if n.MotionPrefix != "" {
		rules.MotionPrefix = n.MotionPrefix
	}
	if n.MsgPrefix != "" {
		rules.MsgPrefix = n.MsgPrefix
	}
	return rules
}

// LoadConfig reads a configuration file. An empty path yields the default
// configuration.
func LoadConfig(configurationPath string) (Config, error) {
	var config Config
	if configurationPath == "" {
		return config, nil
	}

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func buildSolver(cfg SolverConfig) (guard.Solver, error) {
	switch cfg.Kind {
	case "", "syntactic":
		return guard.Syntactic{}, nil
	case "process":
		if cfg.Path == "" {
			return nil, fmt.Errorf("process solver requires a binary path")
		}
		var timeout time.Duration
		if cfg.Timeout != "" {
			d, err := time.ParseDuration(cfg.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid solver timeout %q: %w", cfg.Timeout, err)
			}
			timeout = d
		}
		return &guard.Process{
			Path:    cfg.Path,
			Args:    cfg.Args,
			Logic:   cfg.Logic,
			Timeout: timeout,
		}, nil
	default:
		return nil, fmt.Errorf("unknown solver kind %q", cfg.Kind)
	}
}
