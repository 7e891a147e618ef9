package kafka

import (
	"fmt"
	"log"
	"sync"

	"DocHive/backend/go/internal/config"

	"github.com/segmentio/kafka-go"
)

var (
	conn    *kafka.Conn
	once    sync.Once
	initErr error
)

// EnsureTopics 建立一条管理连接并创建配置中声明但尚不存在的主题。
// 文档事件主题必须在发布者启动前就绪，否则首条消息会因主题缺失而失败。
func EnsureTopics(cfg *config.KafkaConfig) error {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = fmt.Errorf("未配置 Kafka brokers")
			return
		}
		if len(cfg.Topics) == 0 {
			initErr = fmt.Errorf("未配置 Kafka topics")
			return
		}

		c, err := kafka.Dial("tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("kafka 初始化连接失败: %w", err)
			return
		}

		partitions, err := c.ReadPartitions()
		if err != nil {
			initErr = fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
			c.Close()
			return
		}
		existing := make(map[string]struct{})
		for _, p := range partitions {
			existing[p.Topic] = struct{}{}
		}

		var toCreate []kafka.TopicConfig
		for _, topic := range cfg.Topics {
			if _, ok := existing[topic]; !ok {
				log.Printf("主题 '%s' 不存在，准备创建...", topic)
				toCreate = append(toCreate, kafka.TopicConfig{
					Topic:             topic,
					NumPartitions:     1,
					ReplicationFactor: 1,
				})
			}
		}

		if len(toCreate) > 0 {
			if err := c.CreateTopics(toCreate...); err != nil {
				initErr = fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
				c.Close()
				return
			}
		}

		log.Println("✅ Kafka 主题就绪!")
		conn = c
	})

	return initErr
}

// Close 关闭管理连接。
func Close() error {
	if conn != nil {
		return conn.Close()
	}
	return nil
}
