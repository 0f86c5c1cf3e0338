package breaker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭状态：正常工作
	StateOpen                  // 开启状态：熔断中
	StateHalfOpen              // 半开状态：尝试恢复
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 远程调用熔断器，后端不可用时快速失败
type CircuitBreaker struct {
	name             string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMaxCalls int

	mu            sync.Mutex
	state         State
	failures      int
	lastFailTime  time.Time
	halfOpenCalls int

	// isFailure 为 nil 时所有错误都计入失败
	isFailure func(error) bool
	now       func() time.Time
}

func New(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		name:             name,
		maxFailures:      maxFailures,
		resetTimeout:     resetTimeout,
		halfOpenMaxCalls: 1, // 半开状态只放行一个探测请求
		state:            StateClosed,
		now:              time.Now,
	}
}

// WithFailureFilter 只有 pred 返回 true 的错误才计入失败次数
func (cb *CircuitBreaker) WithFailureFilter(pred func(error) bool) *CircuitBreaker {
	cb.isFailure = pred
	return cb
}

// Call 执行带熔断保护的操作，熔断中返回 errors.CircuitOpen
func (cb *CircuitBreaker) Call(ctx context.Context, operation func(ctx context.Context) error) error {
	if !cb.allowRequest() {
		return errors.CircuitOpen
	}

	err := operation(ctx)
	cb.recordResult(ctx, err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailTime) < cb.resetTimeout {
			return false
		}
		cb.transitionTo(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// 调用方主动取消不计入失败
	if err != nil && ctx.Err() == context.Canceled {
		if cb.state == StateHalfOpen {
			cb.halfOpenCalls--
		}
		return
	}

	if err != nil && (cb.isFailure == nil || cb.isFailure(err)) {
		cb.onFailure(err)
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.transitionTo(StateClosed)
	}
}

func (cb *CircuitBreaker) onFailure(err error) {
	cb.failures++
	cb.lastFailTime = cb.now()

	logger.Logger.Warn("Remote call failed",
		zap.String("breaker", cb.name),
		zap.Int("failures", cb.failures),
		zap.String("state", cb.state.String()),
		zap.Error(err),
	)

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.maxFailures {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(s State) {
	cb.state = s
	cb.halfOpenCalls = 0
	if s == StateClosed {
		cb.failures = 0
	}

	logger.Logger.Info("Circuit breaker state changed",
		zap.String("breaker", cb.name),
		zap.String("state", s.String()),
		zap.Int("failures", cb.failures),
	)
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
