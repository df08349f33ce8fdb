package config

// Application constants
const (
	AppName = "camp"

	DefaultDataDir     = "data"
	DefaultStoreFile   = "kapa_data.csv"
	DefaultProjectFile = "project.json"
	DefaultExportDir   = "exports"

	// BackupSuffix is appended to the store path for the pre-write copy.
	BackupSuffix = ".bak"

	DefaultSampleRows       = 20
	DefaultMaxFileSize      = 50 << 20
	DefaultStoryPointFactor = 1.4
)
