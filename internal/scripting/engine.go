package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the match-rule formulas.
// Single-goroutine access only (game loop). Each level owns its engine.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in scriptsDir.
// A missing directory leaves only the built-in fallbacks.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load match scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, replacing any functions it defines.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// PickupContext describes an actor touching an item.
type PickupContext struct {
	Kind   string // item kind, "medkit" or "armor"
	Health float32
	Armor  float32
}

// PickupResult is the actor's new state. Consumed is false when the item
// had no use, in which case it stays in the world.
type PickupResult struct {
	Health   float32
	Armor    float32
	Consumed bool
}

const statCap float32 = 100

func defaultPickup(ctx PickupContext) PickupResult {
	r := PickupResult{Health: ctx.Health, Armor: ctx.Armor}
	switch ctx.Kind {
	case "medkit":
		if ctx.Health < statCap {
			r.Health = min(ctx.Health+25, statCap)
			r.Consumed = true
		}
	case "armor":
		if ctx.Armor < statCap {
			r.Armor = min(ctx.Armor+25, statCap)
			r.Consumed = true
		}
	}
	return r
}

// ItemPickup calls the Lua item_pickup function.
func (e *Engine) ItemPickup(ctx PickupContext) PickupResult {
	fn := e.vm.GetGlobal("item_pickup")
	if fn == lua.LNil {
		return defaultPickup(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("health", lua.LNumber(ctx.Health))
	t.RawSetString("armor", lua.LNumber(ctx.Armor))

	rt, ok := e.callTable("item_pickup", fn, t)
	if !ok {
		return defaultPickup(ctx)
	}
	return PickupResult{
		Health:   lFloat(rt, "health"),
		Armor:    lFloat(rt, "armor"),
		Consumed: rt.RawGetString("consumed") == lua.LTrue,
	}
}

// DamageContext describes a hit before armor is applied.
type DamageContext struct {
	Amount float32
	Health float32
	Armor  float32
}

// DamageResult is how much health and armor the hit removes.
type DamageResult struct {
	HealthLoss float32
	ArmorLoss  float32
}

// Armor soaks up half of the hit while it lasts.
func defaultDamage(ctx DamageContext) DamageResult {
	absorbed := min(ctx.Amount/2, ctx.Armor)
	return DamageResult{HealthLoss: ctx.Amount - absorbed, ArmorLoss: absorbed}
}

// BotDamage calls the Lua bot_damage function.
func (e *Engine) BotDamage(ctx DamageContext) DamageResult {
	fn := e.vm.GetGlobal("bot_damage")
	if fn == lua.LNil {
		return defaultDamage(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("amount", lua.LNumber(ctx.Amount))
	t.RawSetString("health", lua.LNumber(ctx.Health))
	t.RawSetString("armor", lua.LNumber(ctx.Armor))

	rt, ok := e.callTable("bot_damage", fn, t)
	if !ok {
		return defaultDamage(ctx)
	}
	r := DamageResult{
		HealthLoss: lFloat(rt, "health_loss"),
		ArmorLoss:  lFloat(rt, "armor_loss"),
	}
	if r.HealthLoss < 0 || r.ArmorLoss < 0 {
		e.log.Error("lua bot_damage returned negative loss",
			zap.Float32("health_loss", r.HealthLoss), zap.Float32("armor_loss", r.ArmorLoss))
		return defaultDamage(ctx)
	}
	return r
}

// RespawnDelay calls the Lua respawn_delay function with the actor kind
// ("bot" or "player") and returns seconds before the replacement spawns.
func (e *Engine) RespawnDelay(kind string) float32 {
	fn := e.vm.GetGlobal("respawn_delay")
	if fn == lua.LNil {
		return 0
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(kind)); err != nil {
		e.log.Error("lua respawn_delay error", zap.Error(err))
		return 0
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return max(float32(lua.LVAsNumber(result)), 0)
}

// callTable calls fn with a single table argument and expects a table back.
func (e *Engine) callTable(name string, fn lua.LValue, arg *lua.LTable) (*lua.LTable, bool) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return nil, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua function returned non-table", zap.String("func", name))
		return nil, false
	}
	return rt, true
}

// lFloat reads a number field from a Lua table.
func lFloat(t *lua.LTable, key string) float32 {
	return float32(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
