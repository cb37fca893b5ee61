package main

// MilestoneDef is one lifetime-stat milestone
type MilestoneDef struct {
	ID          string
	Name        string
	Description string
}

var Milestones = []MilestoneDef{
	{"first_grab", "Hands On", "Pick up your first object"},
	{"pack_mule", "Pack Mule", "Pick up 100 objects"},
	{"hoarder", "Hoarder", "Pick up 1000 objects"},
	{"first_throw", "Chucker", "Throw your first object"},
	{"pitcher", "Pitcher", "Throw 250 objects"},
	{"marathon", "Marathon", "Move 42195 meters total"},
	{"butterfingers", "Butterfingers", "Lose 50 objects to the tether snapping"},
	{"regular", "Regular", "Play for 10 hours total"},
}

// CheckMilestones unlocks any milestones the player's lifetime stats now
// satisfy. Returns the newly unlocked definitions.
func CheckMilestones(db *DB, playerID int64) []MilestoneDef {
	if db == nil {
		return nil
	}
	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}
	existing, err := db.GetMilestones(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}

	reached := func(id string) bool {
		switch id {
		case "first_grab":
			return stats.Grabs >= 1
		case "pack_mule":
			return stats.Grabs >= 100
		case "hoarder":
			return stats.Grabs >= 1000
		case "first_throw":
			return stats.Throws >= 1
		case "pitcher":
			return stats.Throws >= 250
		case "marathon":
			return stats.Distance >= 42195
		case "butterfingers":
			return stats.Breaks >= 50
		case "regular":
			return stats.Playtime >= 36000
		}
		return false
	}

	var unlocked []MilestoneDef
	for _, def := range Milestones {
		if has[def.ID] || !reached(def.ID) {
			continue
		}
		if newly, err := db.UnlockMilestone(playerID, def.ID); err == nil && newly {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}
