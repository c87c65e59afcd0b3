package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/schema"
)

//go:embed data/*.json
var builtin embed.FS

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	Name         string        `json:"name"`
	BoundingBox  string        `json:"bounding_box"`
	Shapes       []model.Shape `json:"shapes,omitempty"`
	OpenShapes   []model.Shape `json:"open_shapes,omitempty"`
	Hardness     float64       `json:"hardness"`
	Diggable     bool          `json:"diggable,omitempty"`
	Material     string        `json:"material,omitempty"`
	HarvestTools []string      `json:"harvest_tools,omitempty"`
	Liquid       bool          `json:"liquid,omitempty"`
	Climbable    bool          `json:"climbable,omitempty"`
	Replaceable  bool          `json:"replaceable,omitempty"`
	Gravity      bool          `json:"gravity,omitempty"`
	Openable     bool          `json:"openable,omitempty"`
	Interactable bool          `json:"interactable,omitempty"`
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"` // "block","tool","armor","material"
	PlaceAs      string  `json:"place_as,omitempty"`
	ToolMaterial string  `json:"tool_material,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
	Slot         string  `json:"slot,omitempty"`
}

// Default returns the catalogs compiled into the binary.
func Default() (*Catalogs, error) {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// Load reads blocks.json and items.json from configDir.
func Load(configDir string) (*Catalogs, error) {
	return LoadFS(os.DirFS(configDir))
}

func LoadFS(fsys fs.FS) (*Catalogs, error) {
	var c Catalogs
	if err := loadBlocks(fsys, "blocks.json", &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(fsys, "items.json", &c.Items); err != nil {
		return nil, err
	}
	for name, it := range c.Items.Defs {
		if it.PlaceAs == "" {
			continue
		}
		if _, ok := c.Blocks.Defs[it.PlaceAs]; !ok {
			return nil, fmt.Errorf("items.json: %s places unknown block %q", name, it.PlaceAs)
		}
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(fsys fs.FS, path string, out *BlockCatalog) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	if err := schema.ValidateJSON("blocks.schema.json", raw); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.Name]; dup {
			return fmt.Errorf("blocks.json: duplicate block %q", d.Name)
		}
		out.Defs[d.Name] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure air exists and is palette id 0.
	if _, ok := out.Defs["air"]; !ok {
		return fmt.Errorf("blocks.json: missing air")
	}
	ids = append([]string{"air"}, filterOut(ids, "air")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(fsys fs.FS, path string, out *ItemCatalog) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	if err := schema.ValidateJSON("items.schema.json", raw); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.Name]; dup {
			return fmt.Errorf("items.json: duplicate item %q", d.Name)
		}
		out.Defs[d.Name] = d
	}
	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func filterOut(ids []string, drop string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

// BlockID returns the palette id for a block name.
func (c *Catalogs) BlockID(name string) (uint16, bool) {
	id, ok := c.Blocks.Index[name]
	return id, ok
}

// MustBlockID panics on unknown names. Only meant for fixed names in setup code.
func (c *Catalogs) MustBlockID(name string) uint16 {
	id, ok := c.Blocks.Index[name]
	if !ok {
		panic("catalogs: unknown block " + name)
	}
	return id
}

// BlockView builds the model view of a palette id at a position.
// Properties select the open shape set for doors and gates.
func (c *Catalogs) BlockView(id uint16, pos model.Vec3i, props map[string]string) (model.Block, bool) {
	if int(id) >= len(c.Blocks.Palette) {
		return model.Block{}, false
	}
	name := c.Blocks.Palette[id]
	def := c.Blocks.Defs[name]
	shapes := def.Shapes
	if def.Openable && props["open"] == "true" {
		shapes = def.OpenShapes
	}
	return model.Block{
		Pos:         pos,
		ID:          id,
		Name:        name,
		BoundingBox: def.BoundingBox,
		Shapes:      shapes,
		Hardness:    def.Hardness,
		Diggable:    def.Diggable,
		Material:    def.Material,
		Liquid:      def.Liquid,
		Climbable:   def.Climbable,
		Replaceable: def.Replaceable,
		CanFall:     def.Gravity,
		Openable:    def.Openable,
		Properties:  props,
	}, true
}

// DigTimeMS estimates how long breaking the block takes with the given tool
// (nil for bare hands). Blocks that cannot be broken return +Inf.
func (c *Catalogs) DigTimeMS(b model.Block, tool *model.Item) float64 {
	def, ok := c.Blocks.Defs[b.Name]
	if !ok || !def.Diggable || def.Hardness < 0 {
		return math.Inf(1)
	}
	if def.Hardness == 0 {
		return 0
	}
	canHarvest := len(def.HarvestTools) == 0
	speed := 1.0
	if tool != nil {
		for _, t := range def.HarvestTools {
			if t == tool.Name {
				canHarvest = true
				break
			}
		}
		if it, ok := c.Items.Defs[tool.Name]; ok && it.Kind == "tool" && it.ToolMaterial != "" && it.ToolMaterial == def.Material {
			speed = it.Speed
			if tool.Efficiency > 0 {
				speed += float64(tool.Efficiency*tool.Efficiency + 1)
			}
		}
	}
	divisor := 100.0
	if canHarvest {
		divisor = 30
	}
	// One tick deals speed/hardness/divisor damage; a full block needs 1.
	ticks := def.Hardness * divisor / speed
	if ticks < 1 {
		return 0
	}
	return math.Ceil(ticks) * 50
}

// PlaceableBlock returns the block an item places, if any.
func (c *Catalogs) PlaceableBlock(item string) (string, bool) {
	def, ok := c.Items.Defs[item]
	if !ok || def.PlaceAs == "" {
		return "", false
	}
	return def.PlaceAs, true
}

func (c *Catalogs) Interactable(block string) bool {
	return c.Blocks.Defs[block].Interactable
}
