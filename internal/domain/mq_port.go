package domain

type Message struct {
	Key   []byte
	Value []byte
}

// PublisherPort is the engine's outbound event stream; lifecycle transitions
// are published for downstream analytics consumers.
type PublisherPort interface {
	Publish(topic string, msgs ...Message) error
}
