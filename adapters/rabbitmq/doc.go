/*
Package rabbitmq provides a RabbitMQ adapter for the event relay.
It maps envelope publishing to AMQP on a topic exchange and includes an
auto-reconnect publisher.
*/
package rabbitmq
