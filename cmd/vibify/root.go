package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/logger"
)

const (
	envPrefix      = "VIBIFY"
	configFileName = "vibify"
)

// newRootCmd builds the command tree around its own viper instance
func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "vibify",
		Short: "Vibify - AI-Powered Music Recommendation System",
		Long: `Analyze the musical DNA of a song and discover similar music.

The pipeline transcribes the input into notes, summarizes pitch, rhythm,
dynamics, timing and harmony, asks an LLM for five similar songs and
optionally keeps the analysis in a similarity store.`,
		Example: `  vibify --audio data/input/song.mp3
  vibify --audio song.wav --output-dir custom_output/
  vibify --audio song.mp3 --no-api          # Generate prompt only
  vibify --audio song.mid --store-vector    # Store in the similarity store
  vibify --audio song.mp3 --find-similar    # Find similar stored songs
  vibify --audio s3://bucket/song.mp3       # Fetch the input from S3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initializeConfig(cmd, v); err != nil {
				return err
			}
			configureLogging(v.GetBool("verbose"))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := resolveConfig(v)
			p := newPipeline(cmd.Context(), cfg, pipelineOptionsFrom(v), cmd.OutOrStdout())
			return p.run(cmd.Context())
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "config file (default is ./vibify.yaml or $HOME/.config/vibify/vibify.yaml)")
	persistent.String("store-dsn", "", "similarity store: Postgres URL or SQLite file path")
	persistent.String("embedding-model", "", "model used to embed descriptive text")
	persistent.BoolP("verbose", "v", false, "enable verbose output")

	flags := cmd.Flags()
	flags.StringP("audio", "a", "", "path or s3:// URL of the audio, MIDI or JSON notes file")
	flags.StringP("output-dir", "o", "", "custom output directory (default: data/output/)")
	flags.Bool("no-api", false, "skip the API call and generate the prompt only")
	flags.Bool("store-vector", false, "store the analysis in the similarity store")
	flags.Bool("find-similar", false, "find similar songs in the similarity store")

	cmd.AddCommand(newSongsCmd(v), newServeCmd(v))
	return cmd
}

// initializeConfig binds every flag to viper and its VIBIFY_* variable, then
// reads the optional YAML config file
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if err := bindFlags(cmd, v); err != nil {
		return err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", configFileName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// bindFlags binds each cobra flag to its associated viper key
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
		envVar := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if err := v.BindEnv(f.Name, envVar); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// resolveConfig applies command line and VIBIFY_* overrides to the
// environment configuration
func resolveConfig(v *viper.Viper) config.Config {
	cfg := config.Load()

	if dir := v.GetString("output-dir"); dir != "" {
		cfg = cfg.WithOutputDir(dir)
	}
	if v.GetBool("no-api") {
		cfg = cfg.WithAPIDisabled(true)
	}
	if dsn := v.GetString("store-dsn"); dsn != "" {
		cfg = cfg.WithStore(dsn, true)
	}
	if model := v.GetString("embedding-model"); model != "" {
		cfg = cfg.WithEmbeddingModel(model)
	}
	return cfg
}

// configureLogging keeps structured logs off the terminal unless verbose
func configureLogging(verbose bool) {
	logger.SetDebug(verbose)
	if verbose {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}
