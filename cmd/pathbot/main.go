package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/metrics"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/observerproto"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/movements"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/physics"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/persistence/indexdb"
	persistlog "github.com/BBpezsgo/mineflayer-pathfinder/internal/persistence/log"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/persistence/snapshot"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/gen"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8081", "http listen address for /metrics and the observer (empty to disable)")
		seed       = flag.Int64("seed", 1337, "terrain seed")
		tuningPath = flag.String("tuning", "", "path to pathfinder.yaml (defaults when empty)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		goalSpec   = flag.String("goal", "xz:48,32", "goal as kind:args (block, near, xz, nearxz, y, gettoblock)")
		name       = flag.String("name", "pathbot", "agent name")
		viewChunks = flag.Int("view", 4, "chunk radius streamed around the agent")
		tickEvery  = flag.Duration("tick", 50*time.Millisecond, "wall time per tick; 0 runs unthrottled")
		maxTicks   = flag.Int("max_ticks", 20*60*5, "give up after this many ticks")
		stay       = flag.Bool("stay", false, "keep serving after the goal ends")
		snapPath   = flag.String("snapshot", "", "resume from this world snapshot (optional)")
		save       = flag.Bool("save", false, "write a world snapshot to <data>/snapshots on exit")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pathbot] ", log.LstdFlags|log.Lmicroseconds)

	goal, err := parseGoal(*goalSpec)
	if err != nil {
		logger.Fatalf("goal: %v", err)
	}

	cats, err := catalogs.Default()
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tune := tuning.Defaults()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		if tune, err = tuning.Load(tp); err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	terrain := gen.New(gen.DefaultParams(*seed), gen.CatalogPalette(cats))
	world := store.NewChunkStore(cats, 0, 128, terrain)
	world.Streaming = true
	spawn := mgl64.Vec3{0.5, float64(terrain.SurfaceY(0, 0) + 1), 0.5}
	inv := newInventory(
		model.Item{Name: "dirt", Count: 64, Slot: 0},
		model.Item{Name: "cobblestone", Count: 32, Slot: 1},
		model.Item{Name: "iron_pickaxe", Count: 1, Slot: 2},
		model.Item{Name: "iron_shovel", Count: 1, Slot: 3},
		model.Item{Name: "iron_axe", Count: 1, Slot: 4},
	)
	if sp := strings.TrimSpace(*snapPath); sp != "" {
		snap, err := snapshot.ReadSnapshot(sp)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Seed != *seed {
			logger.Printf("snapshot seed %d overrides -seed %d", snap.Seed, *seed)
			*seed = snap.Seed
			terrain = gen.New(gen.DefaultParams(snap.Seed), gen.CatalogPalette(cats))
			world.Gen = terrain
		}
		if err := snapshot.Restore(world, snap); err != nil {
			logger.Fatalf("restore snapshot: %v", err)
		}
		spawn = mgl64.Vec3{snap.Agent.Pos[0], snap.Agent.Pos[1], snap.Agent.Pos[2]}
		if len(snap.Agent.Items) > 0 {
			inv = newInventory(snap.Agent.Items...)
		}
		for _, it := range inv.items {
			if it.Name == snap.Agent.Held {
				inv.held[model.SlotHand] = it
			}
		}
		logger.Printf("resumed from snapshot=%s tick=%d chunks=%d", filepath.Base(sp), snap.Header.Tick, len(snap.Chunks))
	}
	streamChunks(world, spawn, *viewChunks)
	moves, err := movements.New(world, cats, inv, tune)
	if err != nil {
		logger.Fatalf("movements: %v", err)
	}
	engine := physics.NewEngine(world)
	body := physics.NewSimBody(engine, spawn)
	exec := newExecutor(world, inv, logger)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	eventLog := persistlog.NewEventLogger(filepath.Join(*dataDir, "events"))
	defer func() {
		if err := eventLog.Close(); err != nil {
			logger.Printf("event log: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	var tickNow atomic.Uint64
	var sessionID atomic.Value
	sessionID.Store("")
	obs := observer.NewServer(func() observerproto.BootstrapResponse {
		return observerproto.BootstrapResponse{
			Tick:          tickNow.Load(),
			Sessions:      []observerproto.SessionInfo{{ID: sessionID.Load().(string), Name: *name}},
			BlockPalette:  cats.Blocks.Palette,
			PaletteDigest: cats.Blocks.PaletteDigest,
			Tuning:        tune,
		}
	}, logger)

	tally := newTally()
	sinks := []controller.Sink{eventLog, collector, obs, tally}

	if !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "pathfinder.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		collector.WatchQueue("sqlite", func() int { return idx.Stats().QueueDepth }, func() uint64 {
			st := idx.Stats()
			return st.DropSearchTotal + st.DropResetTotal + st.DropGoalTotal
		})
		sinks = append(sinks, idx)
	}
	collector.WatchQueue("observer", func() int { return 0 }, obs.Dropped)

	session, err := controller.New(tune, controller.Deps{
		Body:      body,
		Movements: moves,
		Actions:   exec,
		Engine:    engine,
		Logger:    logger,
		Sinks:     sinks,
	})
	if err != nil {
		logger.Fatalf("controller: %v", err)
	}
	sessionID.Store(session.ID)
	world.OnBlockChange = session.OnBlockUpdate
	world.OnChunkLoad = func(cx, cz int) { session.OnChunkLoaded(model.ChunkPos{CX: cx, CZ: cz}) }

	ctx, cancel := signalContext()
	defer cancel()

	var srv *http.Server
	if a := strings.TrimSpace(*addr); a != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(200)
			_, _ = rw.Write([]byte("ok"))
		})
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.HandleFunc("/observer/bootstrap", obs.BootstrapHandler())
		mux.HandleFunc("/observer/ws", obs.WSHandler())
		srv = &http.Server{Addr: a, Handler: mux}
		go func() {
			logger.Printf("listening on %s", a)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("http: %v", err)
			}
		}()
	}

	logger.Printf("session=%s seed=%d spawn=%v goal=%s", session.ID, *seed, model.Floor(spawn), goals.Describe(goal))

	var (
		gotoErr  error
		finished atomic.Bool
		wg       sync.WaitGroup
	)
	gotoCtx, stopGoto := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		gotoErr = session.Goto(gotoCtx, goal)
		finished.Store(true)
	}()

	var ticker *time.Ticker
	if *tickEvery > 0 {
		ticker = time.NewTicker(*tickEvery)
		defer ticker.Stop()
	}

	start := time.Now()
	travelled := 0.0
	last := body.State().Pos
	ticks := 0
loop:
	for ; *stay || ticks < *maxTicks; ticks++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break
		}

		t0 := time.Now()
		streamChunks(world, body.State().Pos, *viewChunks)
		body.Step()
		exec.Step()
		session.Tick()
		collector.ObserveTick(time.Since(t0))

		st := body.State()
		travelled += st.Pos.Sub(last).Len()
		last = st.Pos
		tickNow.Store(uint64(ticks + 1))
		obs.PublishState(stateMsg(session, st, uint64(ticks+1)))

		if finished.Load() && !*stay {
			ticks++
			break
		}
	}
	stopGoto()
	// One more tick lets the controller act on the cancellation.
	session.Tick()
	wg.Wait()

	switch {
	case gotoErr == nil:
		logger.Printf("goal reached at %v", model.Floor(body.State().Pos))
	case errors.Is(gotoErr, context.Canceled):
		logger.Printf("gave up after %s ticks", humanize.Comma(int64(ticks)))
	default:
		logger.Printf("goto: %v", gotoErr)
	}
	tally.report(logger, ticks, time.Since(start), travelled)
	if *save {
		st := body.State()
		agent := snapshot.AgentV1{Pos: [3]float64{st.Pos[0], st.Pos[1], st.Pos[2]}, Yaw: st.Yaw, Pitch: st.Pitch, Items: inv.Items()}
		if h, ok := inv.Equipped(model.SlotHand); ok {
			agent.Held = h.Name
		}
		snap := snapshot.Capture(world, snapshot.Header{Session: session.ID, Tick: uint64(ticks)}, *seed, agent)
		path := filepath.Join(*dataDir, "snapshots", fmt.Sprintf("%d.snap.zst", ticks))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			logger.Printf("snapshot %s: %d chunks", path, len(snap.Chunks))
		}
	}
	logger.Printf("events written: %s, mined %d, placed %d", humanize.Comma(int64(eventLog.Written())), exec.counts["dig"], exec.counts["place"])

	if srv != nil {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(ctx2)
		cancel2()
	}
}

// streamChunks loads every chunk within r chunks of pos.
func streamChunks(w *store.ChunkStore, pos mgl64.Vec3, r int) {
	c := model.Floor(pos).Chunk()
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			w.LoadChunk(c.CX+dx, c.CZ+dz)
		}
	}
}

func stateMsg(s *controller.Session, st model.AgentState, tick uint64) observerproto.StateMsg {
	msg := observerproto.StateMsg{
		Session:  s.ID,
		Tick:     tick,
		Pos:      [3]float64{st.Pos[0], st.Pos[1], st.Pos[2]},
		Yaw:      st.Yaw,
		Pitch:    st.Pitch,
		Moving:   s.IsMoving(),
		Mining:   s.IsMining(),
		Building: s.IsBuilding(),
		Thinking: s.IsThinking(),
	}
	if g := s.Goal(); g != nil {
		msg.Goal = goals.Describe(g)
	}
	for _, m := range s.Path() {
		msg.Path = append(msg.Path, [3]int{m.Pos.X, m.Pos.Y, m.Pos.Z})
	}
	return msg
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
