package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "vsindex",
		Short:         "Index videos and manage keyframe files for subtitle timing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "Config file (YAML)")
	root.PersistentFlags().String("log-level", "", "Log level, overrides the config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "cachefile <video>",
			Short: "Print the index cache file name for a video",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runCacheFile,
		},
		&cobra.Command{
			Use:   "keyframes-file <video>",
			Short: "Print the keyframes sidecar path for a video",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runKeyframesFile,
		},
		parseCmd(a),
		indexCmd(a),
		keyframesCmd(a),
		&cobra.Command{
			Use:   "plugins",
			Short: "List the capabilities available to the indexer",
			Args:  cobra.NoArgs,
			RunE:  a.runPlugins,
		},
		&cobra.Command{
			Use:   "has-audio <video>",
			Short: "Print whether a video has an audio track",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runHasAudio,
		},
	)
	return root
}

func parseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <index.lwi>",
		Short: "Read timecodes and keyframes from an index file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runParse,
	}
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	cmd.Flags().String("timecodes", "", "Also write v2 timecodes to this file")
	return cmd
}

func indexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <video>",
		Short: "Index a video and print its timecodes and keyframes",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runIndex,
	}
	cmd.Flags().String("cache-dir", "", "Index cache directory (default from config)")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	cmd.Flags().String("timecodes", "", "Also write v2 timecodes to this file")
	return cmd
}

func keyframesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyframes <video>",
		Short: "Find or generate the keyframes file next to a video",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeyframes,
	}
	cmd.Flags().String("detector", "", "Scene detector: wwxd or scxvid (default from config)")
	cmd.Flags().Int("resize-height", 0, "Height frames are scaled to before detection")
	cmd.Flags().Float64("threshold", 0, "Scene change threshold (detector default when 0)")
	return cmd
}
