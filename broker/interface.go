package broker

// Detail identifies the subscriber a message is addressed to. It is the
// connection identifier.
type Detail string

// Publisher delivers messages to a single subscriber without blocking.
//
//go:generate mockgen -destination=mock_publisher.go -package=broker . Publisher
type Publisher interface {
	Publish(detail Detail, message any) error
}
