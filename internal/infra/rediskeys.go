package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "longevity"
)

// Ключи кэша и настроек
const (
	RedisKeyCachePrefix   = RedisNamespace + ":cache:"
	RedisKeyThemePrefix   = RedisNamespace + ":settings:theme:"
	RedisKeyLockScheduled = RedisNamespace + ":lock:batch:scheduled"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanDataRefresh - новые отчеты на диске, инстансы сбрасывают L1 кэш.
	RedisChanDataRefresh = RedisNamespace + ":data:refresh"
	// RedisChanBatchEvents - прогресс батчей (старт/финиш).
	RedisChanBatchEvents = RedisNamespace + ":batch:events"
)

// CacheKey строит ключ L2 кэша для ресурса
func CacheKey(resource string) string {
	return fmt.Sprintf("%s%s", RedisKeyCachePrefix, resource)
}

// ThemeKey ключ настройки темы конкретного клиента
func ThemeKey(clientID string) string {
	return RedisKeyThemePrefix + clientID
}
