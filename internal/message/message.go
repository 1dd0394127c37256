// Package message defines the closed set of messages the simulation emits
// and the multiple-producer, single-consumer channel that carries them to
// the main loop.
package message

import (
	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/match"
)

// Message is implemented only by the types in this package.
type Message interface {
	Kind() string
	isMessage()
}

type StartNewGame struct {
	Options match.Options
}

type SaveGame struct{}

type LoadGame struct{}

type QuitGame struct{}

type EndMatch struct{}

// PickUpItem asks the level to hand an item to an actor.
type PickUpItem struct {
	Actor pool.Handle
	Item  pool.Handle
}

// RespawnActor asks the level to remove a dead actor and spawn a fresh one.
type RespawnActor struct {
	Actor pool.Handle
}

// DamageActor applies Amount of damage to Actor, credited to Who.
type DamageActor struct {
	Actor  pool.Handle
	Who    pool.Handle
	Amount float32
}

// AddNotification is shown on the HUD by an outside collaborator.
type AddNotification struct {
	Text string
}

func (StartNewGame) Kind() string    { return "start_new_game" }
func (SaveGame) Kind() string        { return "save_game" }
func (LoadGame) Kind() string        { return "load_game" }
func (QuitGame) Kind() string        { return "quit_game" }
func (EndMatch) Kind() string        { return "end_match" }
func (PickUpItem) Kind() string      { return "pick_up_item" }
func (RespawnActor) Kind() string    { return "respawn_actor" }
func (DamageActor) Kind() string     { return "damage_actor" }
func (AddNotification) Kind() string { return "add_notification" }

func (StartNewGame) isMessage()    {}
func (SaveGame) isMessage()        {}
func (LoadGame) isMessage()        {}
func (QuitGame) isMessage()        {}
func (EndMatch) isMessage()        {}
func (PickUpItem) isMessage()      {}
func (RespawnActor) isMessage()    {}
func (DamageActor) isMessage()     {}
func (AddNotification) isMessage() {}
