package launcher

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger installs the logger used by this package. The default discards
// everything, so a host that wants launch diagnostics must call this once
// during setup.
func SetLogger(l zerolog.Logger) {
	logger = l
}
