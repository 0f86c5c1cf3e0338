package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("onboard")

// Bolt 单文件持久化，所有 key 放在同一个 bucket 里
type Bolt struct {
	db *bolt.DB
}

// NewBolt 打开或创建数据库文件。文件被其他进程占用时等待 1 秒后返回错误
func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key string) (string, error) {
	var (
		v     string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		// bolt 返回的切片只在事务内有效，这里转换成 string 复制一份
		if raw := tx.Bucket(bucketName).Get([]byte(key)); raw != nil {
			v, found = string(raw), true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("bolt get %s: %w", key, err)
	}
	if !found {
		return "", ErrNotFound
	}
	return v, nil
}

func (b *Bolt) Set(_ context.Context, key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt set %s: %w", key, err)
	}
	return nil
}

func (b *Bolt) Remove(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt remove %s: %w", key, err)
	}
	return nil
}

func (b *Bolt) MultiGet(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		for _, k := range keys {
			if raw := bkt.Get([]byte(k)); raw != nil {
				out[k] = string(raw)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt multi get: %w", err)
	}
	return out, nil
}

// MultiSet 在一个事务里写入，要么全部成功要么都不生效
func (b *Bolt) MultiSet(_ context.Context, values map[string]string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		for k, v := range values {
			if err := bkt.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bolt multi set: %w", err)
	}
	return nil
}

// Clear 删除并重建 bucket
func (b *Bolt) Clear(_ context.Context) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
	if err != nil {
		return fmt.Errorf("bolt clear: %w", err)
	}
	return nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
