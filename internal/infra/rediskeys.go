package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "agentiq"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanRemediationExecuted — предложения, исполненные при показе в дашборде.
	// Внешний исполнитель (или agentiqctl watch) подписывается на этот канал.
	RedisChanRemediationExecuted = RedisNamespace + ":remediations:executed"
)
