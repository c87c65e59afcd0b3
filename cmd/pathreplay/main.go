package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/persistence/indexdb"
	persistlog "github.com/BBpezsgo/mineflayer-pathfinder/internal/persistence/log"
)

var errStop = errors.New("stop")

func main() {
	var (
		eventsDir = flag.String("events", "./data/events", "events dir containing events-*.jsonl.zst")
		session   = flag.String("session", "", "only this session id (optional)")
		fromTick  = flag.Uint64("from_tick", 0, "skip events before this tick (optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		reindex   = flag.String("reindex", "", "rebuild a sqlite index at this path from the log (optional)")
		strict    = flag.Bool("strict", false, "exit non-zero when ordering problems are found")
	)
	flag.Parse()

	files, err := persistlog.ListFiles(*eventsDir, persistlog.EventsPrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	var idx *indexdb.SQLiteIndex
	if *reindex != "" {
		if idx, err = indexdb.OpenSQLite(*reindex); err != nil {
			fmt.Fprintln(os.Stderr, "open index:", err)
			os.Exit(1)
		}
	}

	sum := newSummary()
	read := 0
	for _, path := range files {
		err := persistlog.ReadEvents(path, func(ev controller.Event) error {
			if *session != "" && ev.Session != *session {
				return nil
			}
			if ev.Tick < *fromTick {
				return nil
			}
			if *toTick != 0 && ev.Tick > *toTick {
				return errStop
			}
			read++
			sum.add(ev)
			if idx != nil {
				idx.Emit(ev)
			}
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}

	if idx != nil {
		if err := idx.Sync(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "index sync:", err)
		}
		st := idx.Stats()
		if err := idx.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "index close:", err)
			os.Exit(1)
		}
		fmt.Printf("index rebuilt at %s (dropped %d)\n", *reindex, st.DropSearchTotal+st.DropResetTotal+st.DropGoalTotal)
	}

	sum.write(os.Stdout)
	fmt.Printf("read %d events from %d files\n", read, len(files))
	if n := sum.problems(); n > 0 {
		fmt.Printf("%d ordering problems\n", n)
		if *strict {
			os.Exit(1)
		}
	}
}
