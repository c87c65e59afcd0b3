package movements

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Exclusion weighs a block; +Inf vetoes any move that touches it.
type Exclusion func(b SafeBlock) float64

// exclusionEnv is what configured expressions see.
type exclusionEnv struct {
	X        int     `expr:"x"`
	Y        int     `expr:"y"`
	Z        int     `expr:"z"`
	Name     string  `expr:"name"`
	Liquid   bool    `expr:"liquid"`
	Physical bool    `expr:"physical"`
	Safe     bool    `expr:"safe"`
	Inf      float64 `expr:"inf"`
}

// CompileExclusions compiles expressions such as
//
//	name == "farmland" ? inf : 0
//	x > 100 && z < 0 ? 5 : 0
func CompileExclusions(srcs []string) ([]Exclusion, error) {
	out := make([]Exclusion, 0, len(srcs))
	for _, src := range srcs {
		prog, err := expr.Compile(src, expr.Env(exclusionEnv{}), expr.AsFloat64())
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", src, err)
		}
		out = append(out, exprExclusion(prog))
	}
	return out, nil
}

func exprExclusion(prog *vm.Program) Exclusion {
	return func(b SafeBlock) float64 {
		env := exclusionEnv{
			X: b.Pos.X, Y: b.Pos.Y, Z: b.Pos.Z,
			Name:     b.Name,
			Liquid:   b.Liquid,
			Physical: b.Physical,
			Safe:     b.Safe,
			Inf:      math.Inf(1),
		}
		v, err := expr.Run(prog, env)
		if err != nil {
			// A failing predicate excludes rather than silently allowing.
			return math.Inf(1)
		}
		f, _ := v.(float64)
		return f
	}
}

func sumExclusions(ex []Exclusion, b SafeBlock) float64 {
	w := 0.0
	for _, e := range ex {
		w += e(b)
	}
	return w
}

func (m *Movements) exclusionStep(b SafeBlock) float64  { return sumExclusions(m.ExclusionStep, b) }
func (m *Movements) exclusionBreak(b SafeBlock) float64 { return sumExclusions(m.ExclusionBreak, b) }
func (m *Movements) exclusionPlace(b SafeBlock) float64 { return sumExclusions(m.ExclusionPlace, b) }
