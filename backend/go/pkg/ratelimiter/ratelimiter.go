package ratelimiter

// RateLimiter 是限流器的统一接口。
type RateLimiter interface {
	// Allow 在请求被允许时返回 true，否则返回 false。
	Allow() bool
}
