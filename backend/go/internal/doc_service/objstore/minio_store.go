package objstore

import (
	"context"
	"io"

	"DocHive/backend/go/pkg/circuitbreaker"

	"github.com/minio/minio-go/v7"
)

// MinioStore 用 MinIO 客户端实现对象存储契约。所有调用可以经过一个
// 熔断器：对象存储持续不可用时快速失败，避免拖垮上传请求。
type MinioStore struct {
	client  *minio.Client
	breaker circuitbreaker.CircuitBreaker
}

// NewMinioStore 创建一个 MinioStore。breaker 为 nil 时直连不熔断。
func NewMinioStore(client *minio.Client, breaker circuitbreaker.CircuitBreaker) *MinioStore {
	return &MinioStore{client: client, breaker: breaker}
}

func (m *MinioStore) execute(req func() (interface{}, error)) (interface{}, error) {
	if m.breaker == nil {
		return req()
	}
	return m.breaker.Execute(req)
}

// BucketExists 检查桶是否存在。
func (m *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	res, err := m.execute(func() (interface{}, error) {
		return m.client.BucketExists(ctx, bucket)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// MakeBucket 创建桶。
func (m *MinioStore) MakeBucket(ctx context.Context, bucket string) error {
	_, err := m.execute(func() (interface{}, error) {
		return nil, m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	})
	return err
}

// PutObject 写入一个对象。
func (m *MinioStore) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.execute(func() (interface{}, error) {
		return m.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
	})
	return err
}

// RemoveObject 删除一个对象，供上传失败时的补偿动作使用。
func (m *MinioStore) RemoveObject(ctx context.Context, bucket, key string) error {
	_, err := m.execute(func() (interface{}, error) {
		return nil, m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	})
	return err
}
