package config

// Lua schema field names and globals
const (
	luaGlobalDotstrap   = "dotstrap"
	luaFieldMeta        = "meta"
	luaFieldPackages    = "packages"
	luaFieldInventory   = "inventory"
	luaFieldPlaybook    = "playbook"
	luaFieldDotfiles    = "dotfiles"
	luaFieldShell       = "shell"
	luaFieldOptions     = "options"
	luaFieldName        = "name"
	luaFieldDesc        = "description"
	luaFieldPath        = "path"
	luaFieldHost        = "host"
	luaFieldConnection  = "connection"
	luaFieldGroup       = "group"
	luaFieldWorldWrite  = "world_writable"
	luaFieldAskBecome   = "ask_become_pass"
	luaFieldRepo        = "repo"
	luaFieldBranch      = "branch"
	luaFieldAliases     = "aliases"
	luaFieldAutostart   = "zellij_autostart"
	luaFieldJournalKeep = "journal_retention"
	luaFieldSkipUpgrade = "skip_upgrade"
)

// Validation limits
const (
	// MaxPackageCount bounds the packages list; a bootstrap config listing
	// more than this is almost certainly malformed or malicious.
	MaxPackageCount = 256

	// MaxPackageNameLen bounds a single package name.
	MaxPackageNameLen = 128
)
