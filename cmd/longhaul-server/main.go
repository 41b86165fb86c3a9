// Package main is the entry point for the long-haul fleet simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/orbitalworks/longhaul/internal/catalog"
	"github.com/orbitalworks/longhaul/internal/domain/crew"
	"github.com/orbitalworks/longhaul/internal/domain/ship"
	"github.com/orbitalworks/longhaul/internal/encounter"
	"github.com/orbitalworks/longhaul/internal/infra/cache"
	"github.com/orbitalworks/longhaul/internal/infra/storage"
	"github.com/orbitalworks/longhaul/internal/mining"
	"github.com/orbitalworks/longhaul/internal/network"
	"github.com/orbitalworks/longhaul/internal/platform/logger"
	"github.com/orbitalworks/longhaul/internal/platform/metrics"
	"github.com/orbitalworks/longhaul/internal/platform/tuning"
	"github.com/orbitalworks/longhaul/internal/sim"
	"github.com/orbitalworks/longhaul/internal/simlog"
	"github.com/orbitalworks/longhaul/internal/world"
)

const simID = "SIM_1" // Default singleton simulation ID

// SQLitePersisterAdapter bridges the in-memory log to durable storage.
type SQLitePersisterAdapter struct {
	repo *storage.SQLiteLogRepository
}

func (a *SQLitePersisterAdapter) Append(entry simlog.Entry) error {
	start := time.Now()
	err := a.repo.Append(context.Background(), entry)
	metrics.Get().RecordLogWrite(time.Since(start), err)
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// bootstrapFleet restores the fleet from SQLite, or seeds the starter ship
// when the database is empty.
func bootstrapFleet(ctx context.Context, repo *storage.SQLiteFleetRepository, cat *catalog.Catalog, s *sim.Simulation, appLogger *logger.Logger) {
	appLogger.Info("checking DB for existing fleet...")
	saved, err := repo.GetAll(ctx)
	if err != nil {
		appLogger.Error("failed to query DB for fleet: " + err.Error())
		return
	}

	if len(saved) > 0 {
		appLogger.Info("reconstructing fleet from SQLite state,", len(saved), "ship(s)")
		for _, sh := range saved {
			s.AddShip(sh)
		}
		return
	}

	appLogger.Info("database empty, seeding the starter ship...")
	sh := seedStarterShip(cat)
	s.AddShip(sh)
	_ = repo.Upsert(ctx, sh)
}

func seedStarterShip(cat *catalog.Catalog) *ship.Ship {
	sh := ship.New(uuid.NewString(), "Meridian", "hauler", "ion_drive")
	sh.LocationKey = "earth_station"
	if class, ok := cat.ShipClass(sh.ClassKey); ok {
		sh.FuelCapacityKg = class.FuelCapacityKg
		sh.FuelKg = class.FuelCapacityKg
		sh.ProvisionsCap = class.ProvisionsKg
		sh.ProvisionsKg = class.ProvisionsKg
	}

	avatar := crew.NewMember(uuid.NewString(), "Captain Reyes", "captain")
	avatar.IsAvatar = true
	avatar.Skills[crew.SkillPiloting] = 35
	pilot := crew.NewMember(uuid.NewString(), "Okafor", "pilot")
	pilot.Skills[crew.SkillPiloting] = 50
	engineer := crew.NewMember(uuid.NewString(), "Silva", "engineer")
	engineer.Skills[crew.SkillRepairs] = 45
	medic := crew.NewMember(uuid.NewString(), "Tanaka", "medic")

	sh.Crew = []*crew.Member{avatar, pilot, engineer, medic}
	sh.Assign(ship.RoomHelm, pilot.ID)
	sh.Assign(ship.RoomEngineRoom, engineer.ID)
	sh.Assign(ship.RoomRepairs, engineer.ID)
	sh.Assign(ship.RoomReactor, avatar.ID)

	for _, key := range []string{"rad_shield_mk1", "radiator_array", "containment_unit", "scrubber_stack", "fusion_generator", "field_medbay"} {
		if _, ok := cat.Equipment(key); ok {
			sh.Equipment = append(sh.Equipment, &ship.Equipment{
				ID:      uuid.NewString(),
				DefKey:  key,
				Powered: true,
			})
		}
	}
	return sh
}

func main() {
	log.Println("[LONGHAUL] Initializing fleet simulation server...")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	appLogger := logger.NewLogger()
	tuningCfg := *tuning.DefaultConfig()

	addr := envOr("LONGHAUL_ADDR", ":8080")
	dbPath := envOr("LONGHAUL_DB", "longhaul.db")
	catalogPath := envOr("LONGHAUL_CATALOG", "catalog.yaml")

	appLogger.Info("initializing SQLite database", dbPath)
	db, err := storage.InitSQLite(dbPath)
	if err != nil {
		appLogger.Error("failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	db.SetMaxOpenConns(tuningCfg.DBMaxOpenConns)
	db.SetMaxIdleConns(tuningCfg.DBMaxIdleConns)

	logRepo := storage.NewSQLiteLogRepository(db, simID)
	simLog := simlog.NewLog(&SQLitePersisterAdapter{repo: logRepo})

	appLogger.Info("loading content catalog", catalogPath)
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		appLogger.Error("failed to load catalog: " + err.Error())
		os.Exit(1)
	}

	w, err := world.New(cat.WorldCfg)
	if err != nil {
		appLogger.Error("failed to build world: " + err.Error())
		os.Exit(1)
	}

	seed := time.Now().UnixNano()
	if s := os.Getenv("LONGHAUL_SEED"); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
			seed = parsed
		}
	}
	rng := rand.New(rand.NewSource(seed))

	appLogger.Info("bootstrapping simulation subsystems...")
	simulation := sim.New(cat, w, simLog, appLogger, rng)
	simulation.AutoPause = sim.AutoPauseConfig{
		OnFuelDepleted: true,
		OnStranded:     true,
		OnCrewDeath:    true,
	}
	simulation.RegisterEncounterResolver(encounter.NewResolver(appLogger))
	simulation.RegisterMiningResolver(mining.NewResolver(cat, appLogger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fleetRepo := storage.NewSQLiteFleetRepository(db, simID)
	stateRepo := storage.NewSQLiteStateRepository(db, simID)
	bootstrapFleet(ctx, fleetRepo, cat, simulation, appLogger)

	// Attempt to recover the last known simulation clock.
	if gameTime, ticks, credits, ok, err := stateRepo.Load(ctx); err == nil && ok {
		st := simulation.State()
		st.GameTimeS = gameTime
		st.TickCount = ticks
		st.Credits = credits
		appLogger.Info("restored simulation clock from database")
	}

	redisCache, err := cache.Connect(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASSWORD"), tuningCfg, appLogger)
	if err != nil {
		appLogger.Warn("redis unavailable, continuing without cache: " + err.Error())
	}
	defer redisCache.Close()

	ticker := sim.NewTicker(simulation, appLogger)

	appLogger.Info("bootstrapping WebSocket hub...")
	hub := network.NewHub(simulation, ticker, appLogger, tuningCfg)
	go hub.Run(ctx)
	hub.StartLogPoller(ctx, simLog)

	ticker.OnTick = func() {
		hub.BroadcastTick()
		_ = redisCache.StoreSnapshot(ctx, simulation.Snapshot())
	}
	go ticker.Start(ctx)

	// Automated state backup routine.
	go func() {
		backupTicker := time.NewTicker(5 * time.Second)
		defer backupTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-backupTicker.C:
				st := simulation.State()
				_ = stateRepo.Save(ctx, st.GameTimeS, st.TickCount, st.Credits)
				for _, sh := range st.Fleet {
					_ = fleetRepo.Upsert(ctx, sh)
				}
			}
		}
	}()

	logFeed := network.NewLogFeedHandler(simLog, appLogger)

	// Setup API routes.
	http.HandleFunc("/ws", hub.ServeWs)
	http.HandleFunc("/api/log", logFeed.HandleFeed)
	http.HandleFunc("/metrics", metrics.PrometheusHandler())
	http.HandleFunc("/api/metrics", metrics.Handler())

	http.HandleFunc("/api/fleet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if raw, ok := redisCache.LoadSnapshot(r.Context()); ok {
			w.Write(raw)
			return
		}
		view := simulation.Snapshot()
		_ = redisCache.StoreSnapshot(r.Context(), view)
		json.NewEncoder(w).Encode(view)
	})

	http.HandleFunc("/api/ship", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		sh := simulation.ShipSnapshot(id)
		if sh == nil {
			http.Error(w, "Unknown ship", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sh)
	})

	http.HandleFunc("/api/simulation/depart", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ShipID      string `json:"ship_id"`
			Destination string `json:"destination"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if err := simulation.Depart(req.ShipID, req.Destination); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		redisCache.Invalidate(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/api/simulation/refuel", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ShipID   string  `json:"ship_id"`
			AmountKg float64 `json:"amount_kg"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		loaded, err := simulation.Refuel(req.ShipID, req.AmountKg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		redisCache.Invalidate(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]float64{"loaded_kg": loaded})
	})

	http.HandleFunc("/api/simulation/fast-forward", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Ticks int `json:"ticks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if req.Ticks > tuningCfg.MaxCatchUpTicksPerRequest {
			req.Ticks = tuningCfg.MaxCatchUpTicksPerRequest
		}
		ran := ticker.FastForward(req.Ticks)
		hub.BroadcastTick()
		redisCache.Invalidate(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"ticks_run": ran})
	})

	http.HandleFunc("/api/simulation/speed", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Speed int `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		applied := ticker.SetSpeed(req.Speed)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"speed": applied})
	})

	http.HandleFunc("/api/simulation/pause", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		simulation.Pause("paused by operator")
		w.WriteHeader(http.StatusNoContent)
	})

	http.HandleFunc("/api/simulation/resume", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		simulation.Resume()
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{Addr: addr}
	go func() {
		appLogger.Info("HTTP server listening on", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed: " + err.Error())
			cancel()
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		appLogger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	// Final state flush before exit.
	st := simulation.State()
	_ = stateRepo.Save(context.Background(), st.GameTimeS, st.TickCount, st.Credits)
	for _, sh := range st.Fleet {
		_ = fleetRepo.Upsert(context.Background(), sh)
	}
	appLogger.Info("state flushed, goodbye")
}
