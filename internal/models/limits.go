package models

// Firmware limits.
const (
	MaxBankName     = 10
	MaxSwitchName   = 5
	MaxBrightness   = 100
	DefaultMaxBanks = 100
	DefaultButtons  = 8
	DefaultMaxActs  = 20
	DefaultLongMs   = 400

	MinChannel = 1
	MaxChannel = 16
	MaxData7   = 127
)
