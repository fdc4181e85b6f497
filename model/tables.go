package model

// Tables lists every model migrated at startup.
func Tables() []interface{} {
	return []interface{}{
		&User{},
		&UserProgress{},
		&Habit{},
		&HabitCompletion{},
		&Achievement{},
		&Avatar{},
		&Equipment{},
		&Battle{},
		&BattleEvent{},
	}
}
