package data

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/arenashooter/core/internal/item"
	"github.com/arenashooter/core/internal/vmath"
)

//go:embed level.schema.json
var levelSchemaSource string

var levelSchema = jsonschema.MustCompileString("level.schema.json", levelSchemaSource)

// Point is a position or vector written as [x, y, z].
type Point [3]float32

func (p Point) Vec3() vmath.Vec3 { return vmath.V3(p[0], p[1], p[2]) }

// LevelDef describes how to build a level.
type LevelDef struct {
	Name        string       `yaml:"name"`
	Gravity     *Point       `yaml:"gravity"`
	PlayerSpawn Point        `yaml:"player_spawn"`
	SpawnPoints []Point      `yaml:"spawn_points"`
	Bots        []BotDef     `yaml:"bots"`
	JumpPads    []JumpPadDef `yaml:"jump_pads"`
	Items       []ItemDef    `yaml:"items"`
}

type BotDef struct {
	Name  string `yaml:"name"`
	Spawn int    `yaml:"spawn"` // index into SpawnPoints
}

type JumpPadDef struct {
	Position Point   `yaml:"position"`
	Radius   float32 `yaml:"radius"`
	Force    Point   `yaml:"force"`
}

type ItemDef struct {
	Kind     string `yaml:"kind"`
	Position Point  `yaml:"position"`
}

// DefaultPadRadius applies when a jump pad omits its radius.
const DefaultPadRadius float32 = 1

// ParseLevel validates raw YAML against the level schema and decodes it.
func ParseLevel(raw []byte) (*LevelDef, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("level: parse: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON types.
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("level: convert: %w", err)
	}
	var inst any
	if err := json.Unmarshal(js, &inst); err != nil {
		return nil, fmt.Errorf("level: convert: %w", err)
	}
	if err := levelSchema.Validate(inst); err != nil {
		return nil, fmt.Errorf("level: schema: %w", err)
	}

	var def LevelDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("level: decode: %w", err)
	}
	for _, b := range def.Bots {
		if b.Spawn >= len(def.SpawnPoints) {
			return nil, fmt.Errorf("level: bot %s: spawn %d of %d", b.Name, b.Spawn, len(def.SpawnPoints))
		}
	}
	for i := range def.Items {
		if _, err := item.ParseKind(def.Items[i].Kind); err != nil {
			return nil, fmt.Errorf("level: item %d: %w", i, err)
		}
	}
	for i := range def.JumpPads {
		if def.JumpPads[i].Radius == 0 {
			def.JumpPads[i].Radius = DefaultPadRadius
		}
	}
	return &def, nil
}

// LoadLevel reads and parses a level file.
func LoadLevel(path string) (*LevelDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("level: read %s: %w", path, err)
	}
	def, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
