package shell

const (
	// HookMarker is the string that must appear in rc file hook lines
	HookMarker = "dotstrap activate"

	// BackupSuffix is the suffix for rc file backups
	BackupSuffix = ".dotstrap-backup"
)
