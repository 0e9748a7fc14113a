package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/vsindex/internal/config"
	"github.com/forPelevin/vsindex/internal/domain/filenames"
	"github.com/forPelevin/vsindex/internal/logger"
	"github.com/forPelevin/vsindex/internal/pipeline"
	"github.com/forPelevin/vsindex/internal/types"
)

type app struct {
	cfg *config.Config
	log *logrus.Logger
	p   *pipeline.Pipeline
}

func (a *app) init(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.p = cfg, log, p
	return nil
}

func (a *app) runCacheFile(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), filenames.CacheFile(args[0]))
	return err
}

func (a *app) runKeyframesFile(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), filenames.KeyframesFile(args[0]))
	return err
}

func (a *app) runParse(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	tc, _ := cmd.Flags().GetString("timecodes")
	if err := checkFormat(format); err != nil {
		return err
	}

	idx, err := a.p.Parse(args[0], tc)
	if err != nil {
		return err
	}
	return encode(cmd.OutOrStdout(), format, idx)
}

func (a *app) runIndex(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	tc, _ := cmd.Flags().GetString("timecodes")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	if err := checkFormat(format); err != nil {
		return err
	}

	res, err := a.p.Index(cmd.Context(), args[0], cacheDir, tc)
	if err != nil {
		return err
	}
	return encode(cmd.OutOrStdout(), format, res)
}

func (a *app) runKeyframes(cmd *cobra.Command, args []string) error {
	detector, _ := cmd.Flags().GetString("detector")
	height, _ := cmd.Flags().GetInt("resize-height")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	path, err := a.p.Keyframes(cmd.Context(), args[0], types.DetectOptions{
		Detector:     types.Detector(detector),
		ResizeHeight: height,
		Threshold:    threshold,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}

func (a *app) runHasAudio(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), a.p.HasAudio(cmd.Context(), args[0]))
	return err
}

func (a *app) runPlugins(cmd *cobra.Command, _ []string) error {
	for _, name := range a.p.Capabilities() {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return err
		}
	}
	return nil
}

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want json or yaml)", format)
}

func encode(w io.Writer, format string, v any) error {
	if strings.ToLower(format) == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
