package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jeopardy-service/internal/config"
	"jeopardy-service/internal/game"
	fileboard "jeopardy-service/internal/infra/file"
	"jeopardy-service/internal/infra/memory"
	pgboard "jeopardy-service/internal/infra/postgres"
	redisid "jeopardy-service/internal/infra/redis"
	transport "jeopardy-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const identitySweepInterval = 15 * time.Minute

// NewStartCmd builds the CLI subcommand to start the controller.
func NewStartCmd(configPath, port, questions *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz show controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *questions)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag, questionsFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		// The config file is optional; flags and env cover the common
		// single-host setup.
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = config.Config{}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "4242"
	}
	bind := cfg.Server.Bind
	if bind == "" {
		bind = "0.0.0.0"
	}

	identityTTL := config.TTLDuration(cfg.Identity.TTL, 4*time.Hour)
	var identities game.IdentityStore
	var memIdentities *memory.IdentityStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		identities = redisid.NewIdentityStore(client, identityTTL)
	} else {
		memIdentities = memory.NewIdentityStore(identityTTL)
		identities = memIdentities
	}

	boardFile := questionsFlag
	if boardFile == "" {
		boardFile = cfg.Board.File
	}

	var loader game.BoardLoader
	switch {
	case boardFile != "":
		loader = fileboard.NewBoardLoader(boardFile)
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		boardID := cfg.Board.ID
		if boardID == "" {
			boardID = "default"
		}
		loader = pgboard.NewBoardLoader(pool, boardID)
	default:
		return fmt.Errorf("no question source configured: pass --questions or set board.file / postgres.url")
	}

	// A missing or malformed board aborts startup; there is no partial-start mode.
	board, err := loader.LoadBoard(ctx)
	if err != nil {
		return err
	}

	session := game.NewSession(board, identities)
	handler := transport.NewHandler(session)

	server := &http.Server{
		Addr:         net.JoinHostPort(bind, finalPort),
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("quiz show controller listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if memIdentities != nil {
		g.Go(func() error {
			ticker := time.NewTicker(identitySweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					memIdentities.Sweep()
				}
			}
		})
	}
	return g.Wait()
}
