package tuning

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/schema"
)

type Tuning struct {
	Search     Search     `yaml:"search" json:"search"`
	Controller Controller `yaml:"controller" json:"controller"`
	Movements  Movements  `yaml:"movements" json:"movements"`
	Exclusion  Exclusion  `yaml:"exclusion" json:"exclusion"`
}

type Search struct {
	ThinkTimeoutMs int `yaml:"think_timeout_ms" json:"think_timeout_ms"`
	TickTimeoutMs  int `yaml:"tick_timeout_ms" json:"tick_timeout_ms"`
	// TickIterations caps expansions per step; 0 means only the time slice applies.
	TickIterations int `yaml:"tick_iterations" json:"tick_iterations"`
	// SearchRadius is in blocks; .inf means unbounded.
	SearchRadius Radius `yaml:"search_radius" json:"search_radius"`
}

// Radius is a search radius in blocks. JSON has no infinity, so an
// unbounded radius is written there as the string "inf".
type Radius float64

// Unbounded is the radius that places no limit on the search.
var Unbounded = Radius(math.Inf(1))

func (r Radius) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(r), 1) {
		return []byte(`"inf"`), nil
	}
	return []byte(strconv.FormatFloat(float64(r), 'g', -1, 64)), nil
}

func (r *Radius) UnmarshalJSON(b []byte) error {
	if string(b) == `"inf"` {
		*r = Unbounded
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("search radius %s: %w", b, err)
	}
	*r = Radius(f)
	return nil
}

type Controller struct {
	Error              float64 `yaml:"error" json:"error"`
	EnablePathShortcut bool    `yaml:"enable_path_shortcut" json:"enable_path_shortcut"`
	LOSWhenPlacing     bool    `yaml:"los_when_placing" json:"los_when_placing"`
	LookAtTarget       bool    `yaml:"look_at_target" json:"look_at_target"`
	StuckMs            int     `yaml:"stuck_ms" json:"stuck_ms"`
	StuckDistSq        float64 `yaml:"stuck_dist_sq" json:"stuck_dist_sq"`
}

type Movements struct {
	DigCost    float64 `yaml:"dig_cost" json:"dig_cost"`
	PlaceCost  float64 `yaml:"place_cost" json:"place_cost"`
	LiquidCost float64 `yaml:"liquid_cost" json:"liquid_cost"`
	EntityCost float64 `yaml:"entity_cost" json:"entity_cost"`

	MaxDropDown                    int  `yaml:"max_drop_down" json:"max_drop_down"`
	InfiniteLiquidDropdownDistance bool `yaml:"infinite_liquid_dropdown_distance" json:"infinite_liquid_dropdown_distance"`

	AllowParkour         bool `yaml:"allow_parkour" json:"allow_parkour"`
	AllowSprinting       bool `yaml:"allow_sprinting" json:"allow_sprinting"`
	Allow1by1Towers      bool `yaml:"allow_1by1_towers" json:"allow_1by1_towers"`
	AllowFreeMotion      bool `yaml:"allow_free_motion" json:"allow_free_motion"`
	AllowEntityDetection bool `yaml:"allow_entity_detection" json:"allow_entity_detection"`
	CanDig               bool `yaml:"can_dig" json:"can_dig"`
	CanOpenDoors         bool `yaml:"can_open_doors" json:"can_open_doors"`
	DontCreateFlow       bool `yaml:"dont_create_flow" json:"dont_create_flow"`
	DontMineUnderFalling bool `yaml:"dont_mine_under_falling_block" json:"dont_mine_under_falling_block"`
	Sneak                bool `yaml:"sneak" json:"sneak"`

	Scaffolding          []string `yaml:"scaffolding" json:"scaffolding"`
	BlocksCantBreak      []string `yaml:"blocks_cant_break" json:"blocks_cant_break"`
	BlocksCanBreakAnyway []string `yaml:"blocks_can_break_anyway" json:"blocks_can_break_anyway"`
	BlocksToAvoid        []string `yaml:"blocks_to_avoid" json:"blocks_to_avoid"`
	EntitiesToAvoid      []string `yaml:"entities_to_avoid" json:"entities_to_avoid"`
	PassableEntities     []string `yaml:"passable_entities" json:"passable_entities"`
}

// Exclusion holds cost expressions evaluated per block; see movements.Exclusion.
type Exclusion struct {
	Step  []string `yaml:"step" json:"step"`
	Break []string `yaml:"break" json:"break"`
	Place []string `yaml:"place" json:"place"`
}

func Defaults() Tuning {
	return Tuning{
		Search: Search{
			ThinkTimeoutMs: 5000,
			TickTimeoutMs:  40,
			SearchRadius:   Unbounded,
		},
		Controller: Controller{
			Error:          0.35,
			LOSWhenPlacing: true,
			LookAtTarget:   true,
			StuckMs:        1000,
			StuckDistSq:    1,
		},
		Movements: Movements{
			DigCost:                        1,
			PlaceCost:                      1,
			LiquidCost:                     1,
			EntityCost:                     1,
			MaxDropDown:                    4,
			InfiniteLiquidDropdownDistance: true,
			AllowParkour:                   true,
			AllowSprinting:                 true,
			Allow1by1Towers:                true,
			AllowEntityDetection:           true,
			CanDig:                         true,
			DontCreateFlow:                 true,
			DontMineUnderFalling:           true,
			Scaffolding:                    []string{"dirt", "cobblestone"},
			BlocksCantBreak:                []string{"chest"},
			BlocksToAvoid:                  []string{"cobweb", "lava"},
			PassableEntities:               []string{"item", "experience_orb", "arrow", "painting", "item_frame", "marker"},
		},
	}
}

// Parse decodes a pathfinder.yaml document on top of Defaults and validates it.
func Parse(raw []byte) (Tuning, error) {
	t := Defaults()
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return t, fmt.Errorf("pathfinder.yaml: %w", err)
	}
	if doc != nil {
		if err := schema.Validate("pathfinder.schema.json", doc); err != nil {
			return t, fmt.Errorf("pathfinder.yaml: %w", err)
		}
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("pathfinder.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("pathfinder.yaml: %w", err)
	}
	return t, nil
}

func Load(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Parse(raw)
}

var (
	ErrNegativeTimeout = errors.New("negative timeout")
	ErrNegativeBudget  = errors.New("negative per-tick budget")
	ErrZeroRadius      = errors.New("zero search radius")
	ErrNegativeRadius  = errors.New("negative search radius")
)

// Validate rejects settings that are caller bugs rather than tuning choices.
func (t Tuning) Validate() error {
	if t.Search.ThinkTimeoutMs < 0 {
		return fmt.Errorf("think_timeout_ms=%d: %w", t.Search.ThinkTimeoutMs, ErrNegativeTimeout)
	}
	if t.Search.TickTimeoutMs < 0 {
		return fmt.Errorf("tick_timeout_ms=%d: %w", t.Search.TickTimeoutMs, ErrNegativeBudget)
	}
	if t.Search.TickIterations < 0 {
		return fmt.Errorf("tick_iterations=%d: %w", t.Search.TickIterations, ErrNegativeBudget)
	}
	if r := float64(t.Search.SearchRadius); r == 0 || math.IsNaN(r) {
		return ErrZeroRadius
	} else if r < 0 {
		return fmt.Errorf("search_radius=%v: %w", r, ErrNegativeRadius)
	}
	if t.Controller.Error <= 0 {
		return fmt.Errorf("controller error must be positive, got %v", t.Controller.Error)
	}
	if t.Movements.MaxDropDown < 0 {
		return fmt.Errorf("max_drop_down=%d must not be negative", t.Movements.MaxDropDown)
	}
	return nil
}

// Unbounded reports whether the search radius places no limit.
func (s Search) Unbounded() bool { return math.IsInf(float64(s.SearchRadius), 1) }
