package ui

import (
	"fmt"
	"strings"
)

// LoadingScreen is shown while a level is built in the background.
type LoadingScreen struct {
	Root        WidgetID
	ProgressBar WidgetID
	Text        WidgetID
}

func NewLoadingScreen(u *UI) LoadingScreen {
	return LoadingScreen{
		Root:        u.Add("loading", false),
		ProgressBar: u.Add("loading.progress", true),
		Text:        u.Add("loading.text", true),
	}
}

type Menu struct {
	Root WidgetID
}

func NewMenu(u *UI) Menu {
	return Menu{Root: u.Add("menu", true)}
}

// HUD mirrors the player's state and match events.
type HUD struct {
	Root         WidgetID
	Health       WidgetID
	Armor        WidgetID
	Ammo         WidgetID
	Time         WidgetID
	Died         WidgetID
	Notification WidgetID
	LeaderBoard  WidgetID
}

func NewHUD(u *UI) HUD {
	return HUD{
		Root:         u.Add("hud", false),
		Health:       u.Add("hud.health", true),
		Armor:        u.Add("hud.armor", true),
		Ammo:         u.Add("hud.ammo", true),
		Time:         u.Add("hud.time", true),
		Died:         u.Add("hud.died", false),
		Notification: u.Add("hud.notification", true),
		LeaderBoard:  u.Add("hud.leader_board", false),
	}
}

func (h HUD) SetHealth(u *UI, v float32) { u.SetText(h.Health, fmt.Sprintf("%.0f", v)) }
func (h HUD) SetArmor(u *UI, v float32)  { u.SetText(h.Armor, fmt.Sprintf("%.0f", v)) }
func (h HUD) SetIsDied(u *UI, died bool) { u.SetVisible(h.Died, died) }

// SetAmmo shows the current weapon's rounds, or a dash when unarmed.
func (h HUD) SetAmmo(u *UI, ammo uint32, armed bool) {
	if !armed {
		u.SetText(h.Ammo, "-")
		return
	}
	u.SetText(h.Ammo, fmt.Sprintf("%d", ammo))
}

// SetTime shows match seconds as mm:ss.
func (h HUD) SetTime(u *UI, seconds float32) {
	s := int(seconds)
	u.SetText(h.Time, fmt.Sprintf("%02d:%02d", s/60, s%60))
}

func (h HUD) Notify(u *UI, text string) { u.SetText(h.Notification, text) }

// ShowLeaderBoard renders one "name kills deaths" line per entry.
func (h HUD) ShowLeaderBoard(u *UI, lines []string) {
	u.SetText(h.LeaderBoard, strings.Join(lines, "\n"))
	u.SetVisible(h.LeaderBoard, true)
}
