package main

import (
	"context"
	"log"

	"ai-companion-be/internal/bootstrap"
	"ai-companion-be/internal/config"
	"ai-companion-be/internal/server"
	"ai-companion-be/internal/tracer"
	"ai-companion-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Databases
	gormDB, err := database.NewGormDBFromDSN(cfg.Postgres.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	mongoDB, err := database.NewMongoDB(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Panicf("Unable to connect to MongoDB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, mongoDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Audit Writer...")
		if err := container.AuditService.Run(context.Background()); err != nil {
			log.Printf("Background Audit Writer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
