package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index over controller events. It is
// a controller sink; rows are written by a single goroutine in batched
// transactions and dropped when the queue is full.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropSearch atomic.Uint64
	dropReset  atomic.Uint64
	dropGoal   atomic.Uint64
}

type reqKind int

const (
	reqSearch reqKind = iota + 1
	reqReset
	reqGoal
	reqReached
	reqSync
)

type req struct {
	kind reqKind

	search searchRow
	reset  resetRow
	goal   goalRow
	done   chan struct{}
}

type searchRow struct {
	SearchID  string
	Session   string
	Tick      uint64
	At        string
	Status    string
	Cost      float64
	Visited   int
	Generated int
	TimeMS    float64
	PathLen   int
}

type resetRow struct {
	Session string
	Tick    uint64
	At      string
	Reason  string
}

type goalRow struct {
	Session string
	Seq     uint64
	Tick    uint64
	At      string
	Goal    string
	Dynamic bool
}

// Stats reports queue pressure.
type Stats struct {
	QueueDepth    int
	QueueCapacity int

	DropSearchTotal uint64
	DropResetTotal  uint64
	DropGoalTotal   uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS searches (
			search_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			session TEXT NOT NULL,
			tick INTEGER NOT NULL,
			at TEXT NOT NULL,
			status TEXT NOT NULL,
			cost REAL NOT NULL,
			visited INTEGER NOT NULL,
			generated INTEGER NOT NULL,
			time_ms REAL NOT NULL,
			path_len INTEGER NOT NULL,
			PRIMARY KEY (search_id, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_searches_status ON searches(status);`,
		`CREATE TABLE IF NOT EXISTS resets (
			session TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (session, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_resets_reason ON resets(reason);`,
		`CREATE TABLE IF NOT EXISTS goals (
			session TEXT NOT NULL,
			goal_seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			at TEXT NOT NULL,
			goal TEXT NOT NULL,
			dynamic INTEGER NOT NULL,
			reached_tick INTEGER,
			PRIMARY KEY (session, goal_seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Emit queues the rows derived from ev. Events without an index row
// (path_stop, goal_updated with a nil goal) are ignored.
func (s *SQLiteIndex) Emit(ev controller.Event) {
	if s == nil || s.closed.Load() {
		return
	}
	at := ev.At.UTC().Format(time.RFC3339Nano)
	switch ev.Type {
	case controller.EventPathUpdate:
		if ev.Result == nil {
			return
		}
		r := ev.Result
		row := searchRow{
			SearchID:  ev.SearchID,
			Session:   ev.Session,
			Tick:      ev.Tick,
			At:        at,
			Status:    string(r.Status),
			Cost:      r.Cost,
			Visited:   r.VisitedNodes,
			Generated: r.GeneratedNodes,
			TimeMS:    float64(r.Time) / float64(time.Millisecond),
			PathLen:   len(r.Path),
		}
		s.enqueue(req{kind: reqSearch, search: row}, &s.dropSearch)
	case controller.EventPathReset:
		s.enqueue(req{kind: reqReset, reset: resetRow{Session: ev.Session, Tick: ev.Tick, At: at, Reason: string(ev.Reason)}}, &s.dropReset)
	case controller.EventGoalUpdated:
		if ev.Goal == "" {
			return
		}
		row := goalRow{Session: ev.Session, Seq: ev.GoalSeq, Tick: ev.Tick, At: at, Goal: ev.Goal, Dynamic: ev.Dynamic}
		s.enqueue(req{kind: reqGoal, goal: row}, &s.dropGoal)
	case controller.EventGoalReached:
		s.enqueue(req{kind: reqReached, goal: goalRow{Session: ev.Session, Seq: ev.GoalSeq, Tick: ev.Tick}}, &s.dropGoal)
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	select {
	case s.ch <- r:
	default:
		// The event log remains the source of truth.
		drops.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:      len(s.ch),
		QueueCapacity:   cap(s.ch),
		DropSearchTotal: s.dropSearch.Load(),
		DropResetTotal:  s.dropReset.Load(),
		DropGoalTotal:   s.dropGoal.Load(),
	}
}

// Sync blocks until every row queued before it is committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertCatalogs records the block/item catalogs and the applied tuning so
// an index can be matched to the configuration that produced it.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return fmt.Errorf("indexdb: tuning: %w", err)
	}
	sum := sha256.Sum256(b)
	rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSearch, _ := s.db.Prepare(`INSERT OR REPLACE INTO searches(search_id,step,session,tick,at,status,cost,visited,generated,time_ms,path_len) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertReset, _ := s.db.Prepare(`INSERT OR REPLACE INTO resets(session,tick,seq,at,reason) VALUES(?,?,?,?,?)`)
	insertGoal, _ := s.db.Prepare(`INSERT OR REPLACE INTO goals(session,goal_seq,tick,at,goal,dynamic) VALUES(?,?,?,?,?,?)`)
	markReached, _ := s.db.Prepare(`UPDATE goals SET reached_tick=? WHERE session=? AND goal_seq=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertSearch, insertReset, insertGoal, markReached} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		// Steps per search and resets per (session, tick) are numbered here.
		searchSteps = map[string]int{}
		lastReset   struct {
			session string
			tick    uint64
		}
		resetSeq int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqSearch:
			sr := r.search
			step := searchSteps[sr.SearchID]
			searchSteps[sr.SearchID] = step + 1
			exec(insertSearch, sr.SearchID, step, sr.Session, int64(sr.Tick), sr.At, sr.Status, sr.Cost, sr.Visited, sr.Generated, sr.TimeMS, sr.PathLen)
			if sr.Status != "partial" {
				delete(searchSteps, sr.SearchID)
			}
		case reqReset:
			rr := r.reset
			if rr.Session != lastReset.session || rr.Tick != lastReset.tick {
				lastReset.session, lastReset.tick = rr.Session, rr.Tick
				resetSeq = 0
			}
			exec(insertReset, rr.Session, int64(rr.Tick), resetSeq, rr.At, rr.Reason)
			resetSeq++
		case reqGoal:
			g := r.goal
			exec(insertGoal, g.Session, int64(g.Seq), int64(g.Tick), g.At, g.Goal, g.Dynamic)
		case reqReached:
			g := r.goal
			exec(markReached, int64(g.Tick), g.Session, int64(g.Seq))
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
