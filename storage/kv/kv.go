// Package kv 提供本地键值存储，草稿、完成状态和会话信息都保存在这里。
//
// 支持三种后端：
//   - memory：进程内，测试和一次性会话使用
//   - bolt：单个 bbolt 数据库文件，CLI 默认，重启后仍然保留
//   - redis：多个客户端共享同一份状态，也是开发后端的存储
package kv

import (
	"context"
	stderrors "errors"
)

// Store 定义本地存储的操作，所有值都是字符串。
type Store interface {
	// Get 读取一个值，不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error

	// MultiGet 只返回存在的 key
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)
	MultiSet(ctx context.Context, values map[string]string) error

	// Clear 删除当前 store 下的全部 key
	Clear(ctx context.Context) error
	Close() error
}

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "kv: key not found" }

func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}
