package main

import (
	"context"
	"log"
	"os"

	"github.com/example/collaborative-canvas/config"
	"github.com/example/collaborative-canvas/modules/api"
	"github.com/example/collaborative-canvas/modules/broadcast"
	"github.com/example/collaborative-canvas/modules/canvas"
	"github.com/example/collaborative-canvas/modules/discovery"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Collaborative Canvas - Fiber + EventBus Pubsub ===")

	cfg := config.LoadServer()

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	canvasModule := canvas.NewModule(cfg.MaxSteps, app.Logger())
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(api.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		CursorRate:     cfg.CursorRate,
		CursorBurst:    cfg.CursorBurst,
	})
	discoveryModule, err := discovery.NewModule(cfg.MDNSEnabled, cfg.MDNSInstance, cfg.Port)
	if err != nil {
		log.Fatalf("Failed to create discovery module: %v", err)
	}

	// The hub is not exposed via ServiceContainer, so it is injected directly.
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// - canvas: room sequencer (ServiceProviderModule + EventEmitterModule)
	// - broadcast: fans canvas events out to room connections
	// - api: Fiber HTTP/WebSocket server, depends on canvas
	// - discovery: optional mDNS advertisement
	app.Register(canvasModule)
	app.Register(broadcastModule)
	app.Register(apiModule)
	app.Register(discoveryModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Server) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Rooms keep at most %d strokes", cfg.MaxSteps)
	if cfg.MDNSEnabled {
		log.Printf("Advertising %s as %q", discovery.ServiceType, cfg.MDNSInstance)
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  GET    /api/v1/rooms                  - List active rooms")
	log.Println("  GET    /api/v1/rooms/:id              - Room summary")
	log.Println("  GET    /api/v1/rooms/:id/state        - Current canvas snapshot")
	log.Println("  GET    /api/v1/rooms/:id/export.pdf   - Render the canvas as PDF")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws?room=<id>):", cfg.Port)
	log.Println("  Message types: presence, beginStroke, draw, endStroke, undo, redo, clear, cursor, resync")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
