package clicmd

import (
	"github.com/caarlos0/env/v6"
	"github.com/loomlang/loom/lang/compiler"
)

// Settings is an alias kept local to this package so callers don't need to
// import lang/compiler just to read loadSettingsFromEnv's return type.
type Settings = compiler.Settings

// envSettings mirrors compiler.Settings field-for-field with env tags; the
// indirection exists because compiler.Settings itself has no business
// knowing about environment variables.
type envSettings struct {
	ExportTopLevelIds bool `env:"LOOMC_EXPORT_TOP_LEVEL" envDefault:"false"`
	DisableTypeChecks bool `env:"LOOMC_DISABLE_TYPE_CHECKS" envDefault:"false"`
}

// loadSettingsFromEnv populates compiler.Settings from the process
// environment, falling back to compiler.DefaultSettings for anything
// unset.
func loadSettingsFromEnv() (Settings, error) {
	var es envSettings
	if err := env.Parse(&es); err != nil {
		return Settings{}, err
	}
	s := compiler.DefaultSettings()
	s.ExportTopLevelIds = es.ExportTopLevelIds
	s.EnableTypeChecks = !es.DisableTypeChecks
	return s, nil
}
