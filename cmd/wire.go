package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bnema/roundtable/internal/adapters/generation/remote"
	"github.com/bnema/roundtable/internal/adapters/render/panels"
	"github.com/bnema/roundtable/internal/adapters/render/transcript"
	"github.com/bnema/roundtable/internal/adapters/render/typewriter"
	catalogrepo "github.com/bnema/roundtable/internal/adapters/repo/catalog"
	tomlrepo "github.com/bnema/roundtable/internal/adapters/repo/toml"
	chainstore "github.com/bnema/roundtable/internal/adapters/secrets/chain"
	"github.com/bnema/roundtable/internal/application"
	"github.com/bnema/roundtable/internal/config"
	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/logging"
	"github.com/bnema/roundtable/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultLogFile  = "rt.log"
	transcriptWidth = 80
	// lineChunk lets a line-sink reveal finish in one chunk.
	lineChunk = 1 << 16
)

type app struct {
	cfg                config.Config
	logger             *zap.Logger
	service            *application.Service
	secretStore        ports.SecretStore
	archive            ports.SessionArchive
	typewriter         *typewriter.Typewriter
	bridge             *panels.Bridge
	transcriptRenderer func(domain.Transcript, transcript.RenderOptions) string
}

type wireOptions struct {
	// logToStderr keeps logs on stderr when no log file is configured;
	// otherwise they go to rt.log in the config home so the terminal UI
	// and command output stay clean.
	logToStderr bool
	// interactive reveals turns through the typewriter into the terminal UI.
	interactive bool
	// lines, when set, receives every revealed turn as a rendered block once
	// it is complete. Ignored when interactive is set.
	lines io.Writer
}

func wireApp(ctx context.Context, v *viper.Viper, configFile string, opts wireOptions) (*app, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logFile := cfg.Log.File
	if logFile == "" && !opts.logToStderr {
		logFile = filepath.Join(cfg.Home, defaultLogFile)
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: logFile})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	personas, err := catalogrepo.Source{Path: cfg.Personas.Path}.LoadPersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("wire persona catalog: %w", err)
	}
	catalog, err := application.NewCatalog(personas)
	if err != nil {
		return nil, fmt.Errorf("wire persona catalog: %w", err)
	}

	secretStore, err := chainstore.NewEnvFirstWithFileFallback(cfg.Backend.APIKeyRef, cfg.Secrets.Dir)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	archive, err := tomlrepo.NewRepository(cfg.Archive.Dir)
	if err != nil {
		return nil, fmt.Errorf("wire session archive: %w", err)
	}

	a := &app{
		cfg:                cfg,
		logger:             logger,
		secretStore:        secretStore,
		archive:            archive,
		transcriptRenderer: transcript.Render,
	}

	var presenter ports.Presenter = ports.NopPresenter{}
	if opts.interactive {
		a.bridge = &panels.Bridge{}
		a.typewriter = typewriter.New(a.bridge.Send, typewriter.Options{
			Interval: cfg.Reveal.Interval,
			Chunk:    cfg.Reveal.Chunk,
		})
		presenter = a.typewriter
	} else if opts.lines != nil {
		renderer := transcript.NewRenderer(transcript.RenderOptions{Width: transcriptWidth})
		a.typewriter = typewriter.New(typewriter.LineSink(opts.lines, func(id domain.InstanceID, text string) string {
			turn := domain.Turn{Text: text}
			if instance, ok := a.service.Instance(id); ok {
				turn.Speaker = instance.Persona.Name
			}
			return renderer.Turn(turn)
		}), typewriter.Options{Chunk: lineChunk})
		presenter = a.typewriter
	}

	generator := remote.Client{
		Endpoint:       cfg.Generation.Endpoint,
		RequestTimeout: cfg.Generation.Timeout,
		Logger:         logger.Named("generation"),
	}
	session := application.NewSession()
	engine := application.NewEngine(session, generator, presenter, ports.SystemClock{}, logger.Named("engine"))
	a.service = application.NewService(catalog, engine)

	logger.Debug("app wired",
		zap.String("session", session.ID()),
		zap.String("endpoint", cfg.Generation.Endpoint),
		zap.Int("personas", catalog.Len()),
	)

	return a, nil
}

func (a *app) close() {
	if a.typewriter != nil {
		a.typewriter.Close()
	}
	_ = a.logger.Sync()
}
