package kafka

import (
	"MiniSocial/internal/api/config"
	"time"

	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	EventMessageCreated = "message.created"
	EventMessageDeleted = "message.deleted"
)

// ChatEvent 写入事件流的统一信封，供下游通知子系统消费
type ChatEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Producer 异步生产者封装，发送失败只记日志
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	done     chan struct{}
}

func NewProducer(kafkaCfg config.KafkaConfig) (*Producer, error) {
	c := newSaramaConfig(kafkaCfg)
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Return.Errors = true
	c.Producer.Return.Successes = false

	producer, err := sarama.NewAsyncProducer(kafkaCfg.Brokers, c)
	if err != nil {
		return nil, err
	}

	p := &Producer{
		producer: producer,
		topic:    kafkaCfg.EventTopic,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		for err := range producer.Errors() {
			log.Error("Kafka produce failed", "topic", err.Msg.Topic, "err", err.Err)
		}
	}()

	return p, nil
}

// Emit 发布事件，key 取会话维度保证同会话事件有序
func (p *Producer) Emit(event string, key string, payload interface{}) {
	data, err := json.Marshal(&ChatEvent{
		Event:     event,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	if err != nil {
		log.Error("Failed to marshal chat event", "event", event, "err", err)
		return
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
}

func (p *Producer) Close() error {
	err := p.producer.Close()
	<-p.done
	return err
}
