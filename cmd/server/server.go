package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"deploy-keeper/cmd/root"
	"deploy-keeper/controllers"
	"deploy-keeper/internal/config"
	"deploy-keeper/internal/env"
	"deploy-keeper/internal/logger"
	"deploy-keeper/internal/middleware"
	"deploy-keeper/internal/rpc"
	"deploy-keeper/services"
)

var listenAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start keeper HTTP server",
	Long:  `Run the keeper in server mode: exposes the lifecycle/pipeline API, the push webhook and metrics`,
	Run: func(cmd *cobra.Command, args []string) {
		env.Daemon = true
		if err := startServer(context.Background()); err != nil {
			logger.Fatal(err)
		}
	},
}

/**
 * Start keeper HTTP server with all controllers wired
 * @param {context.Context} ctx - Context controlling the background watcher
 * @returns {error} Returns error if initialization or listening fails
 * @description
 * - Builds lifecycle controller and pipeline runner from loaded config
 * - Registers service, pipeline and system routes on a shared Gin engine
 * - Starts the periodic status watcher in the background
 * - Serves on TCP address and, when supported, a unix socket for the CLI
 */
func startServer(ctx context.Context) error {
	cfg := &config.Config
	if listenAddr != "" {
		cfg.Server.Address = listenAddr
	}
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.MetricsMiddleware())

	lifecycle, err := services.NewLifecycleController(cfg.Service)
	if err != nil {
		return fmt.Errorf("failed to create lifecycle controller: %w", err)
	}
	spec, err := config.LoadPipeline(cfg.Deploy.PipelineFile)
	if err != nil {
		return fmt.Errorf("failed to load pipeline definition: %w", err)
	}
	runner, err := services.NewPipelineRunner(cfg, spec, lifecycle)
	if err != nil {
		return fmt.Errorf("failed to create pipeline runner: %w", err)
	}

	controllers.NewServiceController(lifecycle).RegisterRoutes(router)
	controllers.NewPipelineController(runner).RegisterRoutes(router)
	controllers.NewAPIController(root.SoftwareVer, runner).RegisterRoutes(router)

	// 周期巡检只观测不恢复，恢复由操作员显式触发
	go services.NewWatcher(lifecycle, 0).Start(ctx)

	return serveListeners(router)
}

/**
 * Serve HTTP on all configured listeners
 * @description
 * - TCP listener serves remote clients (webhook, operators)
 * - Unix socket serves local CLI commands without touching the network
 */
func serveListeners(handler http.Handler) error {
	addrs := []ListenAddr{
		{Network: "tcp", Address: config.Config.Server.Address},
	}
	if IsUnixSocketSupported() {
		sockPath := rpc.GetSocketPath("deploy-keeper.sock", "")
		if err := os.MkdirAll(filepath.Dir(sockPath), 0755); err != nil {
			logger.Errorf("Failed to create socket directory: %v", err)
		} else {
			addrs = append(addrs, ListenAddr{Network: "unix", Address: sockPath})
		}
	}

	listeners, err := CreateListeners(addrs)
	if len(listeners) == 0 {
		return fmt.Errorf("no listener could be created: %w", err)
	}

	var wg sync.WaitGroup
	for _, ln := range listeners {
		wg.Add(1)
		go func(l net.Listener) {
			defer wg.Done()
			logger.Infof("Keeper server listening on %s://%s", l.Addr().Network(), l.Addr().String())
			if err := http.Serve(l, handler); err != nil {
				logger.Errorf("Server stopped on %s: %v", l.Addr().String(), err)
			}
		}(ln)
	}
	wg.Wait()
	return nil
}

func init() {
	root.RootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides config, e.g. 0.0.0.0:8999)")
	serverCmd.Example = `  deploy-keeper server
  deploy-keeper server --listen 0.0.0.0:8999`
}
