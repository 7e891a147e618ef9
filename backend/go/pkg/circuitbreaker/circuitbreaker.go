package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 表示熔断器所处的状态。
type State int

const (
	// Closed 是初始状态，请求正常放行。
	Closed State = iota
	// Open 表示熔断已触发，请求被直接拒绝。
	Open
	// HalfOpen 放行少量试探请求，用于判断依赖是否已恢复。
	HalfOpen
)

// String 返回状态的文本表示。
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen 在熔断器处于 Open 状态时返回。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker 是熔断器的统一接口。对象存储调用通过它包装，
// 存储持续不可用时上传请求快速失败而不是逐个超时。
type CircuitBreaker interface {
	// Execute 在 Closed 或 HalfOpen 状态下运行给定请求。
	Execute(req func() (interface{}, error)) (interface{}, error)
	// State 返回当前状态。
	State() State
}

// breaker 是 CircuitBreaker 的默认实现。
type breaker struct {
	failureThreshold     uint32        // 连续失败多少次后熔断
	successThreshold     uint32        // HalfOpen 下连续成功多少次后闭合
	timeout              time.Duration // Open 状态持续多久后进入 HalfOpen
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	lastErrorTime        time.Time
	state                State
	mutex                sync.Mutex
}

// New 创建一个熔断器。
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            Closed,
	}
}

// State 返回当前状态。
func (cb *breaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Execute 以熔断逻辑包装一次请求的执行。
func (cb *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	cb.mutex.Lock()

	// Open 状态超时后进入 HalfOpen 试探。
	if cb.state == Open && time.Since(cb.lastErrorTime) > cb.timeout {
		cb.state = HalfOpen
		cb.consecutiveSuccesses = 0
	}
	if cb.state == Open {
		cb.mutex.Unlock()
		return nil, ErrCircuitOpen
	}
	cb.mutex.Unlock()

	res, err := req()
	if err != nil {
		cb.onFailure()
		return nil, err
	}
	cb.onSuccess()
	return res, nil
}

func (cb *breaker) onSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case HalfOpen:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.successThreshold {
			cb.reset()
		}
	case Closed:
		cb.consecutiveFailures = 0
	}
}

func (cb *breaker) onFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case HalfOpen:
		// 试探失败，立即回到 Open。
		cb.trip()
	case Closed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.trip()
		}
	}
}

// trip 打开熔断器并记录时间。
func (cb *breaker) trip() {
	cb.state = Open
	cb.lastErrorTime = time.Now()
	cb.consecutiveFailures = 0
}

// reset 闭合熔断器，清空计数。
func (cb *breaker) reset() {
	cb.state = Closed
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}
