package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
)

// Notifier 用户可见的提示，Toast 可忽略，Alert 需要用户确认
type Notifier interface {
	Toast(ctx context.Context, message string)
	Alert(ctx context.Context, title, message string)
}

// userMessage 由携带服务端提示的错误实现
type userMessage interface {
	UserMessage() string
}

// Error 按错误类型选择提示方式：配置前置条件用 Alert，其余用 Toast
func Error(ctx context.Context, n Notifier, err error) {
	if err == nil || n == nil {
		return
	}

	msg := Message(err)
	if errors.IsConfigError(err) {
		n.Alert(ctx, "Error", msg)
		return
	}
	n.Toast(ctx, msg)
}

// Message 返回给用户看的错误文本
func Message(err error) string {
	var fe *errors.FieldError
	if stderrors.As(err, &fe) {
		return fe.Error()
	}

	var um userMessage
	if stderrors.As(err, &um) {
		if m := um.UserMessage(); m != "" {
			return m
		}
	}

	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Message
	}
	return err.Error()
}

// Writer 把提示写到终端，CLI 使用
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Toast(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	logger.Logger.Debug("Toast", zap.String("message", message))
	fmt.Fprintf(n.w, "! %s\n", message)
}

func (n *Writer) Alert(_ context.Context, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	logger.Logger.Warn("Alert", zap.String("title", title), zap.String("message", message))
	fmt.Fprintf(n.w, "[%s] %s\n", title, message)
}

// Recorder 记录全部提示，测试使用
type Recorder struct {
	mu     sync.Mutex
	Toasts []string
	Alerts []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Toast(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Toasts = append(r.Toasts, message)
}

func (r *Recorder) Alert(_ context.Context, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, title+": "+message)
}

func (r *Recorder) ToastCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Toasts)
}

func (r *Recorder) AlertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Alerts)
}
