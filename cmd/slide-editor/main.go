package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	slideeditor "github.com/menta2k/slide-editor"
	"github.com/menta2k/slide-editor/internal/config"
	"github.com/menta2k/slide-editor/internal/utils"
	"github.com/menta2k/slide-editor/pkg/processing"
	"github.com/menta2k/slide-editor/pkg/types"
)

var (
	flagConfig      string
	flagOutput      string
	flagBackend     string
	flagURL         string
	flagExtractor   string
	flagInpaint     string
	flagStyles      bool
	flagMaxDepth    int
	flagConcurrency int
	flagDumpDir     string
	flagVerbose     bool
)

func main() {
	root := &cobra.Command{
		Use:           "slide-editor",
		Short:         "Turn flat slide images into editable presentations",
		Version:       slideeditor.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+config.GetConfigPath()+")")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	convert := &cobra.Command{
		Use:   "convert [images or directories]",
		Short: "Decompose slide images and write an editable presentation",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runConvert,
	}
	convert.Flags().StringVarP(&flagOutput, "output", "o", "presentation.pptx", "output presentation path")
	convert.Flags().StringVar(&flagBackend, "backend", "ollama", "vision backend: ollama or llamacpp")
	convert.Flags().StringVar(&flagURL, "url", "", "vision server URL (overrides config)")
	convert.Flags().StringVar(&flagExtractor, "extractor", "hybrid", "extraction strategy: structural|model|hybrid")
	convert.Flags().StringVar(&flagInpaint, "inpaint", "generative", "inpainting strategy: generative|baidu|hybrid|none")
	convert.Flags().BoolVar(&flagStyles, "extract-styles", false, "infer font weight, color and family for text components")
	convert.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "recursion depth for nested graphics (0 = config default)")
	convert.Flags().IntVar(&flagConcurrency, "concurrency", 0, "parallel image analyses (0 = config default)")
	convert.Flags().StringVar(&flagDumpDir, "dump-backgrounds", "", "directory to write inpainted backgrounds to for inspection")
	root.AddCommand(convert)

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			cfg := config.Default()
			cfg.ApplyEnv()
			return cfg, nil
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := log.Default()
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	switch flagBackend {
	case "ollama":
		if flagURL != "" {
			cfg.Ollama.URL = flagURL
		}
		cfg.LlamaCpp.URL = ""
	case "llamacpp":
		if flagURL != "" {
			cfg.LlamaCpp.URL = flagURL
		}
		cfg.Ollama.URL = ""
	default:
		return fmt.Errorf("unknown backend %q (use ollama or llamacpp)", flagBackend)
	}

	paths, err := utils.CollectImagePaths(args, logger)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image files found in the given arguments")
	}

	output := utils.NextAvailablePath(flagOutput)
	if output != flagOutput {
		logger.Warn("output exists, using a free name", "requested", flagOutput, "using", output)
	}

	svc, err := slideeditor.NewService(cfg, slideeditor.Options{
		Extractor:     slideeditor.ExtractorStrategy(flagExtractor),
		Inpaint:       slideeditor.InpaintStrategy(flagInpaint),
		ExtractStyles: flagStyles,
		MaxDepth:      flagMaxDepth,
		Concurrency:   flagConcurrency,
		Logger:        logger,
		Progress: func(step, message string, percent int) {
			logger.Info(fmt.Sprintf("[%3d%%] %s: %s", percent, step, message))
		},
	})
	if err != nil {
		return err
	}

	logger.Info("converting", "images", len(paths), "output", output)
	if flagDumpDir != "" {
		result, err := svc.AnalyzeBatch(cmd.Context(), paths)
		if err != nil {
			return err
		}
		if err := dumpBackgrounds(result.Images, flagDumpDir, logger); err != nil {
			return err
		}
		if err := svc.Reconstruct(cmd.Context(), result.Images, output); err != nil {
			return err
		}
	} else if err := svc.Convert(cmd.Context(), paths, output); err != nil {
		return err
	}

	if info, err := os.Stat(output); err == nil {
		logger.Info("done", "output", output, "size", utils.FormatFileSize(info.Size()))
	} else {
		logger.Info("done", "output", output)
	}
	return nil
}

// dumpBackgrounds writes each inpainted background as a PNG named after
// its source image, for inspecting what the providers produced.
func dumpBackgrounds(images []*types.EditableImage, dir string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("creating dump directory %s: %w", dir, err)
	}
	proc := processing.NewProcessor()
	for _, img := range images {
		if img == nil || img.Background == nil {
			continue
		}
		base := strings.TrimSuffix(filepath.Base(img.SourcePath), filepath.Ext(img.SourcePath))
		path := filepath.Join(dir, utils.SanitizeFilename(base)+".png")
		if err := proc.SaveImage(img.Background, path, "png", 0, false); err != nil {
			return fmt.Errorf("dumping background for %s: %w", img.SourcePath, err)
		}
		logger.Debug("dumped background", "path", path)
	}
	return nil
}
