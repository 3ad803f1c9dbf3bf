package models

// All lists every persisted model, in dependency order. Used by tests to AutoMigrate sqlite.
func All() []any {
	return []any{
		&User{},
		&Account{},
		&Session{},
		&Verification{},
		&UserSettings{},
		&MediaUploadSettings{},
	}
}
