package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// parseGoal reads a goal flag of the form kind:args, e.g. "xz:40,-12",
// "block:3,64,9" or "near:3,64,9,2".
func parseGoal(s string) (goals.Goal, error) {
	kind, args, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return nil, fmt.Errorf("goal %q: want kind:args", s)
	}
	var nums []float64
	for _, f := range strings.Split(args, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("goal %q: %w", s, err)
		}
		nums = append(nums, v)
	}
	want := map[string]int{"block": 3, "near": 4, "xz": 2, "nearxz": 3, "y": 1, "gettoblock": 3}
	n, known := want[strings.ToLower(kind)]
	if !known {
		return nil, fmt.Errorf("goal %q: unknown kind %q", s, kind)
	}
	if len(nums) != n {
		return nil, fmt.Errorf("goal %q: %s takes %d numbers, got %d", s, kind, n, len(nums))
	}
	i := func(k int) int { return int(nums[k]) }
	switch strings.ToLower(kind) {
	case "block":
		return goals.NewBlock(i(0), i(1), i(2)), nil
	case "near":
		return goals.NewNear(i(0), i(1), i(2), nums[3]), nil
	case "xz":
		return goals.XZ{X: i(0), Z: i(1)}, nil
	case "nearxz":
		return goals.NewNearXZ(i(0), i(1), nums[2]), nil
	case "y":
		return goals.Y{Y: i(0)}, nil
	default:
		return goals.GetToBlock{Pos: model.V(i(0), i(1), i(2))}, nil
	}
}
