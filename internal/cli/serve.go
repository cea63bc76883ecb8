package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/api"
	"github.com/panel-configurator/backend/internal/cart"
	"github.com/panel-configurator/backend/internal/config"
	"github.com/panel-configurator/backend/internal/export"
	"github.com/panel-configurator/backend/internal/logging"
	"github.com/panel-configurator/backend/internal/palette"
	"github.com/panel-configurator/backend/internal/session"
	"github.com/panel-configurator/backend/internal/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	configPath string
	port       int
	dataDir    string
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the configurator HTTP server",
		Long:  `Run the configurator HTTP server until interrupted. A missing config file is created with defaults.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if opts.port > 0 {
				cfg.Server.Port = opts.port
			}
			if opts.dataDir != "" {
				cfg.SetDataDir(opts.dataDir)
			}
			if !c.verbose {
				c.Logger.SetLevel(logging.ParseLevel(cfg.Advanced.LogLevel))
			}

			srv, err := newServer(cfg, c.Logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			printBanner(c.out, cfg, opts.configPath, srv.embedded)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "panelconfig.yaml", "config file path")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "override the configured port")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "override the configured data directory")

	return cmd
}

// server bundles everything serve starts and stops.
type server struct {
	cfg      *config.AppConfig
	logger   *log.Logger
	echo     *echo.Echo
	http     *http.Server
	sessions *session.Manager
	cart     cart.Store
	embedded bool
}

func newServer(cfg *config.AppConfig, logger *log.Logger) (*server, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	layouts, icons, err := loadTables(cfg.Catalog.LayoutsFile, cfg.Catalog.IconsFile)
	if err != nil {
		return nil, err
	}

	store, err := openCart(cfg, logger)
	if err != nil {
		return nil, err
	}

	exports, err := export.NewLocalStore(cfg.GetExportsDir())
	if err != nil {
		store.Close()
		return nil, err
	}

	fonts := palette.NewProvider(palette.Options{
		FontsURL:     cfg.Palette.FontsURL,
		APIKey:       cfg.Palette.FontsAPIKey,
		FetchTimeout: time.Duration(cfg.Palette.FetchTimeoutSeconds) * time.Second,
		CacheFor:     time.Duration(cfg.Palette.CacheMinutes) * time.Minute,
		Logger:       logger,
	})

	sessions := session.NewManager(layouts, session.Options{
		MaxSessions: cfg.Sessions.MaxSessions,
		KeepAlive:   time.Duration(cfg.Sessions.KeepAliveMinutes) * time.Minute,
		Logger:      logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareOptions{
		Logger:           logger,
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		Compression:      cfg.Advanced.EnableCompression,
		CompressionLevel: cfg.Advanced.CompressionLevel,
		BodyLimit:        cfg.Server.BodyLimit,
		Timeout:          time.Duration(cfg.Server.ReadTimeout) * time.Second,
		EnableCORS:       cfg.Server.EnableCORS,
		AllowOrigins:     api.SplitOrigins(cfg.Server.AllowOrigins),
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Layouts:        layouts,
		Icons:          icons,
		Fonts:          fonts,
		Sessions:       sessions,
		Cart:           store,
		Exports:        exports,
		Logger:         logger,
		MaxMessageSize: int64(cfg.Advanced.WebSocketMaxMessage) * 1024,
		Version:        version,
	}))

	embedded := web.HasEmbeddedFiles()
	if embedded {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "err", err)
			embedded = false
		}
	}

	return &server{
		cfg:    cfg,
		logger: logger,
		echo:   e,
		http: &http.Server{
			Addr:         cfg.GetServerAddr(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		},
		sessions: sessions,
		cart:     store,
		embedded: embedded,
	}, nil
}

// openCart opens the configured cart backend.
func openCart(cfg *config.AppConfig, logger *log.Logger) (cart.Store, error) {
	if cfg.Storage.CartBackend == config.CartBackendMemory {
		logger.Warn("using in-memory cart, designs are lost on restart")
		return cart.NewMemoryStore(), nil
	}
	return cart.NewDuckStore(cfg.Storage.CartDatabase, cart.DuckOptions{
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		Logger:      logger,
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.sessions.RunCleanup(ctx, s.cfg.CleanupInterval(), s.cfg.SessionTimeout())

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		errCh <- s.echo.StartServer(s.http)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the cart.
func (s *server) Close() error {
	return s.cart.Close()
}

func printBanner(w io.Writer, cfg *config.AppConfig, configPath string, embedded bool) {
	mode := "API only"
	if embedded {
		mode = "API + embedded frontend"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║           Panel Configurator Server                       ║\n")
	fmt.Fprintf(w, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║  Version:    %-45s║\n", version)
	fmt.Fprintf(w, "║  Build Time: %-45s║\n", buildTime)
	fmt.Fprintf(w, "║  Mode:       %-45s║\n", mode)
	fmt.Fprintf(w, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║  Config:    %-46s║\n", configPath)
	fmt.Fprintf(w, "║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Fprintf(w, "║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Fprintf(w, "║  Cart:      %-46s║\n", cfg.Storage.CartBackend)
	fmt.Fprintf(w, "╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(w, "\n")
}
