package indexdb

import "context"

// StatusCounts counts search steps by status.
func (s *SQLiteIndex) StatusCounts(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx, `SELECT status, COUNT(*) FROM searches GROUP BY status`)
}

// ResetCounts counts path resets by reason.
func (s *SQLiteIndex) ResetCounts(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx, `SELECT reason, COUNT(*) FROM resets GROUP BY reason`)
}

// GoalSummary is one goal row.
type GoalSummary struct {
	Session     string
	Seq         uint64
	Goal        string
	Dynamic     bool
	Reached     bool
	ReachedTick uint64
}

func (s *SQLiteIndex) Goals(ctx context.Context, session string) ([]GoalSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session, goal_seq, goal, dynamic, reached_tick FROM goals WHERE session=? ORDER BY goal_seq`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GoalSummary
	for rows.Next() {
		var (
			g       GoalSummary
			seq     int64
			reached *int64
		)
		if err := rows.Scan(&g.Session, &seq, &g.Goal, &g.Dynamic, &reached); err != nil {
			return nil, err
		}
		g.Seq = uint64(seq)
		if reached != nil {
			g.Reached = true
			g.ReachedTick = uint64(*reached)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) countBy(ctx context.Context, q string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}
