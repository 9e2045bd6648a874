package bus

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const signalExchange = "servizo.signals"

// AMQPRelay fans storage-change events out to every terminal process of the
// installation. Each context gets an exclusive auto-delete queue bound to a
// fanout exchange, so lost contexts leave nothing behind. Delivery is
// best-effort: receivers re-read the store anyway, so a missed signal costs
// at most one stale render until the next local change.
type AMQPRelay struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	bus    *Bus
	logger *zap.Logger
}

func NewAMQPRelay(url string, b *Bus, logger *zap.Logger) (*AMQPRelay, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(signalExchange, "fanout", false, true, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	if err := ch.QueueBind(q.Name, "", signalExchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	r := &AMQPRelay{conn: conn, ch: ch, bus: b, logger: logger}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		r.Close()
		return nil, err
	}
	go r.consume(msgs)

	b.AttachRelay(r)
	return r, nil
}

func (r *AMQPRelay) Forward(evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.ch.PublishWithContext(ctx, signalExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	}); err != nil {
		r.logger.Warn("signal relay publish failed", zap.Error(err))
		return err
	}
	return nil
}

func (r *AMQPRelay) consume(msgs <-chan amqp.Delivery) {
	for msg := range msgs {
		var evt Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			r.logger.Warn("signal relay payload unreadable", zap.Error(err))
			continue
		}
		r.bus.Inject(evt)
	}
	r.logger.Info("signal relay consumer closed")
}

func (r *AMQPRelay) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
