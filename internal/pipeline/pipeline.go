package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/vsindex/internal/config"
	"github.com/forPelevin/vsindex/internal/domain/keyframes"
	"github.com/forPelevin/vsindex/internal/domain/lwindex"
	"github.com/forPelevin/vsindex/internal/domain/timecodes"
	"github.com/forPelevin/vsindex/internal/logger"
	"github.com/forPelevin/vsindex/internal/ports"
	"github.com/forPelevin/vsindex/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vsindex/internal/ports/adapters/mp4index"
	"github.com/forPelevin/vsindex/internal/ports/adapters/pluginhost"
	"github.com/forPelevin/vsindex/internal/types"
	"github.com/forPelevin/vsindex/internal/usecase"
)

type Pipeline struct {
	cfg  *config.Config
	host *pluginhost.Host
	uc   usecase.Usecase
	log  logrus.FieldLogger
}

// New registers the built-in capabilities whose tools are available and wires
// the use cases to them.
func New(cfg *config.Config, log logrus.FieldLogger) (*Pipeline, error) {
	if log == nil {
		log = logger.Discard()
	}
	host := pluginhost.New()
	if err := registerBuiltins(host, cfg, log); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Deps{
		Registry: host,
		Log:      logger.WithComponent(log, "usecase"),
		Settings: usecase.Settings{
			CacheDir:  cfg.Paths.CacheDir,
			PluginDir: cfg.Paths.PluginDir,
			Source:    cfg.Source.Plugin,
		},
	})
	return &Pipeline{cfg: cfg, host: host, uc: uc, log: log}, nil
}

func registerBuiltins(host *pluginhost.Host, cfg *config.Config, log logrus.FieldLogger) error {
	v := ffmpeg.New(cfg.Source.FFmpegPath, cfg.Source.FFprobePath)

	builtins := map[string]any{usecase.CapMP4FF: mp4index.New()}
	if v.HasFFprobe() {
		builtins[usecase.CapLSMAS] = v
		builtins[usecase.CapBAS] = v
	}
	if v.HasFFmpeg() {
		builtins[usecase.CapWWXD] = ffmpeg.NewSceneDetector(cfg.Source.FFmpegPath, types.DetectorWWXD)
		builtins[usecase.CapScxvid] = ffmpeg.NewSceneDetector(cfg.Source.FFmpegPath, types.DetectorScxvid)
	}
	for name, p := range builtins {
		if err := host.Register(name, p); err != nil {
			return err
		}
	}
	log.WithField("capabilities", host.Names()).Debug("registered built-in capabilities")
	return nil
}

// Capabilities lists what is currently registered.
func (p *Pipeline) Capabilities() []string { return p.host.Names() }

// Parse reads an existing index file. With tcOut set, the timecodes are also
// written there in v2 format.
func (p *Pipeline) Parse(indexFile, tcOut string) (types.Index, error) {
	idx, err := lwindex.ParseFile(indexFile)
	if err != nil {
		return types.Index{}, err
	}
	if err := p.saveTimecodes(tcOut, idx); err != nil {
		return types.Index{}, err
	}
	return idx, nil
}

// Index opens video through the configured source and returns the clip and
// the index read back from the cache.
func (p *Pipeline) Index(ctx context.Context, video, cacheDir, tcOut string) (types.IndexResult, error) {
	res, err := p.uc.WrapSource(ctx, video, cacheDir)
	if err != nil {
		return types.IndexResult{}, err
	}
	p.log.WithFields(logrus.Fields{
		"frames":    len(res.Index.Timecodes),
		"keyframes": len(res.Index.Keyframes),
	}).Info("index ready")
	if err := p.saveTimecodes(tcOut, res.Index); err != nil {
		return types.IndexResult{}, err
	}
	return res, nil
}

// Keyframes returns the keyframes sidecar of video, generating it when absent.
// opts fields left zero fall back to the configuration.
func (p *Pipeline) Keyframes(ctx context.Context, video string, opts types.DetectOptions) (string, error) {
	if kf := p.uc.TryGetKeyframes(video, ""); kf != "" {
		log := p.log.WithField("file", kf)
		frames, err := keyframes.Load(kf)
		if err != nil {
			log.WithError(err).Warn("keyframes file found but unreadable")
			return kf, nil
		}
		log.WithField("keyframes", len(frames)).Info("keyframes file found")
		return kf, nil
	}

	if opts.Detector == "" {
		opts.Detector = types.Detector(p.cfg.Keyframes.Detector)
	}
	if opts.ResizeHeight <= 0 {
		opts.ResizeHeight = p.cfg.Keyframes.ResizeHeight
	}
	if opts.Threshold <= 0 {
		opts.Threshold = p.cfg.Keyframes.Threshold
	}

	res, err := p.uc.WrapSource(ctx, video, "")
	if err != nil {
		return "", err
	}
	return p.uc.GetKeyframes(ctx, video, *res.Clip, opts)
}

func (p *Pipeline) HasAudio(ctx context.Context, video string) bool {
	return p.uc.CheckAudio(ctx, video)
}

func (p *Pipeline) saveTimecodes(path string, idx types.Index) error {
	if path == "" {
		return nil
	}
	if err := timecodes.Save(path, idx.Timecodes); err != nil {
		return fmt.Errorf("write timecodes: %w", err)
	}
	p.log.WithField("file", path).Info("timecodes written")
	return nil
}

// ensure adapters implement ports
var _ ports.Source = (*ffmpeg.Adapter)(nil)
var _ ports.AudioSource = (*ffmpeg.Adapter)(nil)
var _ ports.SceneDetector = (*ffmpeg.SceneDetector)(nil)
var _ ports.Source = (*mp4index.Source)(nil)
var _ ports.Registry = (*pluginhost.Host)(nil)
