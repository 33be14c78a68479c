package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/movi-agent/server/internal/agent/graph"
	"github.com/movi-agent/server/internal/agent/llm"
	"github.com/movi-agent/server/internal/agent/model"
	"github.com/movi-agent/server/internal/agent/repo"
	"github.com/movi-agent/server/internal/agent/sessions"
	"github.com/movi-agent/server/internal/agent/tools"
	"github.com/movi-agent/server/internal/core"
	"github.com/movi-agent/server/internal/store"
	logx "github.com/movi-agent/server/pkg/logger"
	pkgpostgres "github.com/movi-agent/server/pkg/postgres"
	pkgredis "github.com/movi-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config `envconfig:"POSTGRES"`
	// UsePostgres switches the demo from the in-memory store to Postgres.
	UsePostgres bool `envconfig:"USE_POSTGRES" default:"false"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Model    model.CompletionModelConfig
	Session  model.SessionConfig
	Retry    model.RetryConfig
	Pipeline model.PipelineConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	var st store.Store
	if cfg.UsePostgres {
		pool, err := cfg.Postgres.New(ctx)
		if err != nil {
			log.Fatalf("Failed to initialise Postgres pool: %v", err)
		}
		defer pool.Close()
		st = store.NewPostgres(pool)
	} else {
		st = seedDemoStore()
	}

	completion, err := llm.NewService(ctx, llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		log.Fatalf("Failed to build completion service: %v", err)
	}

	ttl, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		log.Fatalf("Invalid SESSION_TTL '%s': %v", cfg.Session.TTL, err)
	}
	sweep, err := time.ParseDuration(cfg.Session.SweepInterval)
	if err != nil {
		log.Fatalf("Invalid SESSION_SWEEP_INTERVAL '%s': %v", cfg.Session.SweepInterval, err)
	}

	sessionRepo := repo.NewRedisSessionRepository(rdb, ttl)
	sessionMgr := sessions.NewManager(sessionRepo, ttl)
	sessionMgr.StartSweeper(ctx, sweep)

	runner, err := graph.BuildPipeline(ctx, graph.Config{
		Completion:  completion,
		Store:       st,
		Sessions:    sessionMgr,
		RetryPolicy: tools.PolicyFromConfig(cfg.Retry),
		MaxRunSteps: cfg.Pipeline.MaxRunSteps,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	sessionID := uuid.NewString()
	rc := model.RequestContext{Page: "daily_trips"}

	turns := []string{
		"How many vehicles are unassigned right now?",
		"Remove the vehicle from Morning Express - 8:30",
	}

	var last *model.FinalResponse
	for i, input := range turns {
		fmt.Printf("\nTurn %d: %q\n", i+1, input)

		last, err = runner.Run(ctx, graph.RunInput{
			UserInput: input,
			SessionID: sessionID,
			Context:   rc,
		})
		if err != nil {
			log.Fatalf("Turn %d failed: %v", i+1, err)
		}
		fmt.Printf("[%s] %s\n", last.ResponseType, last.Response)
	}

	// Confirm the risky removal from the previous turn.
	if last != nil && last.ResponseType == model.ResponseConfirmation {
		preserved, err := sessionMgr.PreservedState(ctx, sessionID)
		if err != nil {
			log.Fatalf("Failed to load preserved state: %v", err)
		}

		fmt.Printf("\nTurn %d: %q\n", len(turns)+1, "yes, go ahead")
		last, err = runner.Run(ctx, graph.RunInput{
			UserInput:     "yes, go ahead",
			SessionID:     sessionID,
			Context:       rc,
			UserConfirmed: true,
			Preserved:     preserved,
		})
		if err != nil {
			log.Fatalf("Confirmation turn failed: %v", err)
		}
		fmt.Printf("[%s] %s\n", last.ResponseType, last.Response)
	}
}

// seedDemoStore fills the in-memory store with a small fleet so the demo
// conversation has something to act on.
func seedDemoStore() *store.Memory {
	m := store.NewMemory()

	v1 := m.SeedVehicle(store.Vehicle{LicensePlate: "KA-01-AB-1234", Type: "bus", Capacity: 60})
	m.SeedVehicle(store.Vehicle{LicensePlate: "KA-02-CD-5678", Type: "bus", Capacity: 45})
	m.SeedVehicle(store.Vehicle{LicensePlate: "KA-03-EF-9012", Type: "minibus", Capacity: 20})

	d1 := m.SeedDriver(store.Driver{Name: "Ravi Kumar", Phone: "+91 98450 11111"})
	m.SeedDriver(store.Driver{Name: "Lakshmi Narayan", Phone: "+91 98450 22222"})

	r1 := m.SeedRoute(store.Route{DisplayName: "Morning Express - 08:30", ShiftTime: "08:30", Direction: "outbound"})
	t1 := m.SeedTrip(store.DailyTrip{RouteID: r1.ID, DisplayName: "Morning Express - 08:30", BookingPercentage: 25, LiveStatus: "scheduled"})
	m.SeedTrip(store.DailyTrip{RouteID: r1.ID, DisplayName: "Morning Express - 17:30", BookingPercentage: 0, LiveStatus: "scheduled"})

	m.SeedDeployment(store.Deployment{TripID: t1.ID, VehicleID: v1.ID, DriverID: d1.ID})
	return m
}
