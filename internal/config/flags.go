package config

import "flag"

// Flag values shared by every subcommand. They are bound to a command's
// FlagSet by RegisterFlags.
var (
	flagConfig    string
	flagDebug     bool
	flagASCII     bool
	flagAlgorithm string
	flagMaxSheets = -1
	flagWorkers   int
	flagLogFile   string
)

// RegisterFlags binds the shared flags to fs. Call it before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&flagConfig, "config", "", "Path to config file")
	fs.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	fs.BoolVar(&flagASCII, "ascii", false, "Write the atlas index in the text format")
	fs.StringVar(&flagAlgorithm, "algorithm", "", "Packing algorithm (maxrects, guillotine)")
	fs.IntVar(&flagMaxSheets, "max-sheets", -1, "Maximum sheets per atlas (0 = unlimited)")
	fs.IntVar(&flagWorkers, "workers", 0, "Parallel atlases in batch mode (0 = one per CPU)")
	fs.StringVar(&flagLogFile, "log-file", "", "Also write logs to this file")
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if flagDebug {
		cfg.Logging.Level = "debug"
	}
	if flagASCII {
		cfg.Output.Format = FormatText
	}
	if flagAlgorithm != "" {
		cfg.Packing.Algorithm = flagAlgorithm
	}
	if flagMaxSheets >= 0 {
		cfg.Packing.MaxSheets = flagMaxSheets
	}
	if flagWorkers > 0 {
		cfg.Batch.Workers = flagWorkers
	}
	if flagLogFile != "" {
		cfg.Logging.LogFile = flagLogFile
	}
}
