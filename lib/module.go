package wallpaperlib

import (
	"go.uber.org/fx"
)

// Module provides a *Cycler and everything it needs. *Config and
// *zap.Logger must be supplied.
var Module = fx.Options(
	fx.Provide(
		NewRunner,
		NewMonitorDetector,
		DetectLayout,
		NewPicker,
		NewValidator,
		NewQuoteSource,
		NewComposer,
		NewSetters,
		NewLockChecker,
		NewCycler,
	),
)
