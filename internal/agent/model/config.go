package model

// ================ Config ================
type SessionConfig struct {
	TTL           string `envconfig:"SESSION_TTL" default:"24h"`
	SweepInterval string `envconfig:"SESSION_SWEEP_INTERVAL" default:"1h"`
}

type CompletionModelConfig struct {
	Model          string `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	TimeoutSeconds int    `envconfig:"AGENT_MODEL_TIMEOUT" default:"30"`
	MaxTokens      int    `envconfig:"AGENT_MODEL_MAX_TOKENS" default:"2000"`
}

type RetryConfig struct {
	MaxAttempts   int     `envconfig:"TOOL_RETRY_MAX_ATTEMPTS" default:"2"`
	BaseDelaySecs float64 `envconfig:"TOOL_RETRY_BASE_DELAY" default:"1"`
	MaxDelaySecs  float64 `envconfig:"TOOL_RETRY_MAX_DELAY" default:"3"`
	BackoffFactor float64 `envconfig:"TOOL_RETRY_BACKOFF_FACTOR" default:"2"`
}

type PipelineConfig struct {
	MaxRunSteps int `envconfig:"PIPELINE_MAX_RUN_STEPS" default:"12"`
}
