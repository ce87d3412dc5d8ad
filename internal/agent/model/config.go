package model

// ================ Config ================
type ConversationConfig struct {
	TTL            string `envconfig:"CONVERSATION_TTL" default:"2h"`
	Store          string `envconfig:"CONVERSATION_STORE" default:"memory"`
	MemoryCapacity int    `envconfig:"CONVERSATION_MEMORY_CAPACITY" default:"1024"`
	Suggestions    struct {
		MaxUses int `envconfig:"CONVERSATION_SUGGESTION_MAX_USES" default:"3"`
	}
}

type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"0"`
}

type GenerationConfig struct {
	Timeout string `envconfig:"GENERATION_TIMEOUT" default:"30s"`
}

type PromptConfig struct {
	Language string `envconfig:"PROMPT_LANGUAGE" default:"English"`
}
