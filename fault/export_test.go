package fault

// Arm sets up the handler like InstallHooks, without relocating the vector
// table.
func Arm(p Platform, cfg *Config) {
	platform = p
	backtrace = cfg.Backtrace
	lastResort = cfg.LastResort
	phase.Store(uint32(Armed))
}
