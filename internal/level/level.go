// Package level builds and runs one arena match: the scene, the actors and
// their pick-ups, the match clock and the leader board.
package level

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/actor"
	"github.com/arenashooter/core/internal/controls"
	"github.com/arenashooter/core/internal/core/pool"
	coresys "github.com/arenashooter/core/internal/core/system"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/data"
	"github.com/arenashooter/core/internal/item"
	"github.com/arenashooter/core/internal/jumppad"
	"github.com/arenashooter/core/internal/match"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/resource"
	"github.com/arenashooter/core/internal/scene"
	"github.com/arenashooter/core/internal/scripting"
	"github.com/arenashooter/core/internal/vmath"
	"github.com/arenashooter/core/internal/weapon"
)

// Deps is what a level needs from the game to be built or loaded.
type Deps struct {
	Resources  *resource.Manager
	Controls   *controls.Shared
	Sender     message.Sender
	LevelName  string // asset name under levels/
	ScriptsDir string
	Log        *zap.Logger
}

const playerName = "Player"

// buildStages is the number of progress steps New reports besides reading
// the definition: jump pads, items and actors.
const buildStages = 3

type pendingSpawn struct {
	kind actor.Kind
	name string
	in   float32 // seconds left
}

type Level struct {
	name    string
	options match.Options
	time    float32 // match seconds elapsed
	ended   bool

	scene       *scene.Scene
	sceneHandle pool.Handle
	actors      *actor.Container
	items       *item.Container
	jumpPads    *jumppad.Container
	weapons     *weapon.Container
	player      pool.Handle
	input       actor.Input
	inputFresh  bool
	board       *LeaderBoard

	playerSpawn vmath.Vec3
	spawnPoints []vmath.Vec3
	spawnCursor uint32
	pending     []pendingSpawn

	script   *scripting.Engine
	runner   *coresys.Runner
	updCtx   actor.UpdateContext
	sender   message.Sender
	controls *controls.Shared
	log      *zap.Logger
}

func empty(deps Deps, options match.Options) (*Level, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	script, err := scripting.NewEngine(deps.ScriptsDir, log)
	if err != nil {
		return nil, fmt.Errorf("level scripts: %w", err)
	}
	l := &Level{
		name:     deps.LevelName,
		options:  options,
		scene:    scene.New(),
		actors:   actor.NewContainer(log),
		items:    item.NewContainer(),
		jumpPads: jumppad.NewContainer(),
		weapons:  weapon.NewContainer(),
		board:    NewLeaderBoard(),
		script:   script,
		sender:   deps.Sender,
		controls: deps.Controls,
		log:      log,
	}
	l.runner = coresys.NewRunner()
	l.runner.Register(&inputSystem{l})
	l.runner.Register(&actorSystem{l})
	l.runner.Register(&physicsSystem{l})
	l.runner.Register(&itemSystem{l})
	l.runner.Register(&weaponSystem{l})
	l.runner.Register(&matchSystem{l})
	l.runner.Register(&respawnSystem{l})
	l.bindContext()
	return l, nil
}

func (l *Level) bindContext() {
	l.updCtx = actor.UpdateContext{
		Scene:    l.scene,
		Items:    l.items,
		JumpPads: l.jumpPads,
		Weapons:  l.weapons,
	}
}

// New builds a level from its asset definition. It is safe to run on a
// background goroutine; the result is not touched by anything else until
// it is handed over.
func New(ctx context.Context, deps Deps, options match.Options) (*Level, error) {
	deps.Resources.Expect(buildStages)
	def, err := deps.Resources.Level(ctx, deps.LevelName)
	if err != nil {
		return nil, err
	}
	l, err := empty(deps, options)
	if err != nil {
		return nil, err
	}
	if err := l.build(ctx, def, deps.Resources); err != nil {
		l.Destroy()
		return nil, fmt.Errorf("build level %s: %w", deps.LevelName, err)
	}
	l.log.Info("level built",
		zap.String("level", def.Name),
		zap.String("mode", options.Mode.String()),
		zap.Uint32("actors", l.actors.Count()),
		zap.Uint32("items", l.items.Count()),
		zap.Int("jump_pads", l.jumpPads.Len()),
	)
	return l, nil
}

func (l *Level) build(ctx context.Context, def *data.LevelDef, res *resource.Manager) error {
	phys := l.scene.Physics
	if def.Gravity != nil {
		phys.Gravity = def.Gravity.Vec3()
	}
	l.playerSpawn = def.PlayerSpawn.Vec3()
	for _, p := range def.SpawnPoints {
		l.spawnPoints = append(l.spawnPoints, p.Vec3())
	}

	for _, pd := range def.JumpPads {
		body := phys.AddBody(physics.RigidBody{Type: physics.Static, Position: pd.Position.Vec3()})
		if _, err := phys.AddCollider(body, physics.Collider{Radius: pd.Radius, Sensor: true}); err != nil {
			return err
		}
		l.jumpPads.Add(jumppad.New(body, pd.Force.Vec3()))
	}
	res.Done()

	for _, id := range def.Items {
		kind, err := item.ParseKind(id.Kind)
		if err != nil {
			return err
		}
		pivot := l.scene.Graph.Add(scene.Node{Name: kind.String(), Position: id.Position.Vec3()})
		l.items.Add(item.New(kind, pivot))
	}
	res.Done()
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := l.spawn(actor.KindPlayer, playerName, l.playerSpawn); err != nil {
		return err
	}
	for _, b := range def.Bots {
		if _, err := l.spawn(actor.KindBot, b.Name, l.spawnPoints[b.Spawn]); err != nil {
			return err
		}
	}
	res.Done()
	return ctx.Err()
}

// spawn creates a fresh actor of the given kind at a point, armed with a
// new rifle.
func (l *Level) spawn(kind actor.Kind, name string, at vmath.Vec3) (pool.Handle, error) {
	c, err := actor.NewCharacter(name, l.scene.Physics, at, l.sender)
	if err != nil {
		return pool.None, err
	}
	gun := l.weapons.Add(weapon.New(weapon.Rifle))
	c.AddWeapon(gun)

	var a actor.Actor
	switch kind {
	case actor.KindPlayer:
		a = actor.FromPlayer(actor.NewPlayer(c, l.controls))
	case actor.KindBot:
		a = actor.FromBot(actor.NewBot(c))
	}
	h, err := l.actors.Add(a)
	if err != nil {
		c.CleanUp(l.scene.Physics)
		l.weapons.Free(gun)
		return pool.None, fmt.Errorf("spawn %s: %w", kind, actor.ErrUnknownKind)
	}
	if kind == actor.KindPlayer {
		l.player = h
	}
	l.board.Register(name)
	return h, nil
}

// nextSpawnPoint cycles through the level's spawn points.
func (l *Level) nextSpawnPoint() vmath.Vec3 {
	if len(l.spawnPoints) == 0 {
		return l.playerSpawn
	}
	p := l.spawnPoints[l.spawnCursor%uint32(len(l.spawnPoints))]
	l.spawnCursor++
	return p
}

// Load restores a level saved with Visit. On error the partially read
// level is destroyed and nothing else is affected.
func Load(v *visit.Visitor, name string, deps Deps) (*Level, error) {
	l, err := empty(deps, match.Options{})
	if err != nil {
		return nil, err
	}
	if err := l.Visit(name, v); err != nil {
		l.Destroy()
		return nil, err
	}
	l.SetMessageSender(deps.Sender)
	l.SetControlScheme(deps.Controls)
	return l, nil
}

// Update advances the level by dt.
func (l *Level) Update(dt time.Duration) {
	l.runner.Tick(dt)
}

func (l *Level) Name() string                 { return l.name }
func (l *Level) Options() match.Options       { return l.options }
func (l *Level) Time() float32                { return l.time }
func (l *Level) Ended() bool                  { return l.ended }
func (l *Level) Scene() *scene.Scene          { return l.scene }
func (l *Level) Actors() *actor.Container     { return l.actors }
func (l *Level) Items() *item.Container       { return l.items }
func (l *Level) JumpPads() *jumppad.Container { return l.jumpPads }
func (l *Level) Weapons() *weapon.Container   { return l.weapons }
func (l *Level) LeaderBoard() *LeaderBoard    { return l.board }
func (l *Level) SceneHandle() pool.Handle     { return l.sceneHandle }
func (l *Level) SetSceneHandle(h pool.Handle) { l.sceneHandle = h }
func (l *Level) PendingRespawns() int         { return len(l.pending) }

// Player returns the player's handle, pool.None while the player is dead
// and waiting to respawn.
func (l *Level) Player() pool.Handle { return l.player }

// SetPlayerInput buffers translated input. The input phase of the next
// Update hands it to the player, if alive.
func (l *Level) SetPlayerInput(in actor.Input) { l.input, l.inputFresh = in, true }

// CurrentAmmo returns the ammo of the player's current weapon and whether
// the player is alive and armed.
func (l *Level) CurrentAmmo() (uint32, bool) {
	a, err := l.actors.Get(l.player)
	if err != nil {
		return 0, false
	}
	w, err := l.weapons.Get(a.Character().CurrentWeapon())
	if err != nil {
		return 0, false
	}
	return w.Ammo(), true
}

// SetMessageSender attaches tx to the level and all of its actors.
func (l *Level) SetMessageSender(tx message.Sender) {
	l.sender = tx
	l.actors.SetMessageSender(tx)
}

// SetControlScheme attaches the shared scheme to the level and the player.
func (l *Level) SetControlScheme(cs *controls.Shared) {
	l.controls = cs
	if a, err := l.actors.Get(l.player); err == nil {
		if p, ok := a.Player(); ok {
			p.SetControlScheme(cs)
		}
	}
}

// Destroy releases the level's physics state and script VM. The level
// must not be used afterwards.
func (l *Level) Destroy() {
	l.actors.Destroy(l.scene.Physics)
	l.weapons.Clear()
	l.scene.Physics.Clear()
	if l.script != nil {
		l.script.Close()
		l.script = nil
	}
}

// Visit persists the whole level including its physics world.
func (l *Level) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitString("Name", &l.name); err != nil {
		return err
	}
	if err := l.options.Visit("Options", v); err != nil {
		return err
	}
	if err := v.VisitF32("Time", &l.time); err != nil {
		return err
	}
	if err := v.VisitBool("Ended", &l.ended); err != nil {
		return err
	}
	if err := l.scene.Visit("Scene", v); err != nil {
		return err
	}
	if err := l.actors.Visit("Actors", v); err != nil {
		return err
	}
	if err := l.items.Visit("Items", v); err != nil {
		return err
	}
	if err := l.jumpPads.Visit("JumpPads", v); err != nil {
		return err
	}
	if err := l.weapons.Visit("Weapons", v); err != nil {
		return err
	}
	if err := pool.VisitHandle(v, "Player", &l.player); err != nil {
		return err
	}
	if err := l.board.Visit("LeaderBoard", v); err != nil {
		return err
	}
	if err := l.playerSpawn.Visit("PlayerSpawn", v); err != nil {
		return err
	}
	if err := l.visitSpawns(v); err != nil {
		return err
	}
	if err := l.visitPending(v); err != nil {
		return err
	}
	if v.IsReading() {
		l.bindContext()
	}
	return v.LeaveRegion()
}

func (l *Level) visitSpawns(v *visit.Visitor) error {
	if err := v.EnterRegion("SpawnPoints"); err != nil {
		return err
	}
	n := uint32(len(l.spawnPoints))
	if err := v.VisitU32("Count", &n); err != nil {
		return err
	}
	if err := v.VisitU32("Cursor", &l.spawnCursor); err != nil {
		return err
	}
	if v.IsReading() {
		if n > 4096 {
			return fmt.Errorf("spawn points: %d: %w", n, visit.ErrCorrupt)
		}
		l.spawnPoints = make([]vmath.Vec3, n)
	}
	for i := range l.spawnPoints {
		if err := l.spawnPoints[i].Visit(fmt.Sprintf("Point%d", i), v); err != nil {
			return err
		}
	}
	return v.LeaveRegion()
}

func (l *Level) visitPending(v *visit.Visitor) error {
	if err := v.EnterRegion("PendingRespawns"); err != nil {
		return err
	}
	n := uint32(len(l.pending))
	if err := v.VisitU32("Count", &n); err != nil {
		return err
	}
	if v.IsReading() {
		if n > 4096 {
			return fmt.Errorf("pending respawns: %d: %w", n, visit.ErrCorrupt)
		}
		l.pending = make([]pendingSpawn, n)
	}
	for i := range l.pending {
		p := &l.pending[i]
		if err := v.EnterRegion(fmt.Sprintf("Spawn%d", i)); err != nil {
			return err
		}
		kind := uint32(p.kind)
		if err := v.VisitU32("KindId", &kind); err != nil {
			return err
		}
		if kind != uint32(actor.KindPlayer) && kind != uint32(actor.KindBot) {
			return fmt.Errorf("pending respawn %d: %w", kind, actor.ErrUnknownKind)
		}
		p.kind = actor.Kind(kind)
		if err := v.VisitString("Name", &p.name); err != nil {
			return err
		}
		if err := v.VisitF32("In", &p.in); err != nil {
			return err
		}
		if err := v.LeaveRegion(); err != nil {
			return err
		}
	}
	return v.LeaveRegion()
}
