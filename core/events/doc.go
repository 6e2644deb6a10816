// Package events publishes domain events (low-stock alerts, audit entries) to
// downstream consumers.
//
// The Kafka publisher writes JSON messages through a segmentio/kafka-go Writer,
// one topic per event family, keyed so all events for a product land on the
// same partition. When no brokers are configured the service falls back to the
// logger publisher, which writes the same events as structured log lines.
//
// # Usage
//
//	pub := events.NewKafkaPublisher(cfg.Kafka, logger)
//	defer pub.Close()
//	err := pub.Publish(ctx, cfg.Kafka.AlertTopic, productID, alert)
package events
