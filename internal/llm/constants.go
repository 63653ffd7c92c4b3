// In file: internal/llm/constants.go
package llm

import "time"

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultTemperature = float32(0.6)
	DefaultMaxTokens   = 200

	// DefaultSafetyThreshold blocks only high-probability harmful content.
	DefaultSafetyThreshold = "BLOCK_ONLY_HIGH"

	defaultTimeout = 120 * time.Second
)
