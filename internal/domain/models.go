package domain

// Models lists every table migrated at startup.
func Models() []interface{} {
	return []interface{}{
		&Account{},
		&Holding{},
		&Transaction{},
		&Alert{},
	}
}
