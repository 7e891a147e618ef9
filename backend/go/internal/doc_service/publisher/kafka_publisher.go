package publisher

import (
	"context"
	"encoding/json"
	"strconv"

	"DocHive/backend/go/internal/models"
	"DocHive/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// DocEventPublisher 把文档变更事件发布到 Kafka，供下游解析、索引等
// 流水线消费。以 did 作为消息 key，同一文档的事件落在同一分区内保序。
type DocEventPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewDocEventPublisher 创建一个 DocEventPublisher。
func NewDocEventPublisher(brokers []string, topic string, log *logger.Logger) *DocEventPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &DocEventPublisher{
		writer: writer,
		logger: log,
	}
}

// Publish 发送一条文档事件。
func (p *DocEventPublisher) Publish(ctx context.Context, event models.DocEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("序列化文档事件失败")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.Did, 10)),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]interface{}{"topic": p.writer.Topic, "event": event.Event}).
			Error("写入 Kafka 消息失败")
		return err
	}
	return nil
}

// Close 关闭底层的 Kafka writer。
func (p *DocEventPublisher) Close() error {
	return p.writer.Close()
}
