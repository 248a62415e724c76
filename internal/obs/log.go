package obs

import "go.uber.org/zap"

// NewLogger builds the engine's structured logger. Production builds
// get JSON output; pass develop=true for console-friendly output in
// cmd/exodus-transform's --verbose mode.
func NewLogger(develop bool) (*zap.Logger, error) {
	if develop {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
