// Package gochannel provides the in-process event transport used by default
// and in tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DefaultBuffer is the per-subscriber output buffer of the default channel.
const DefaultBuffer = 1000

// CreateChannel returns a single GoChannel acting as both publisher and
// subscriber. Lifecycle events are fire-and-forget, so publishing never
// blocks the task that emits them.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return createChannel(logger, gochannel.Config{
		OutputChannelBuffer:            DefaultBuffer,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: false,
	})
}

// CreateTestChannel keeps published messages and blocks until they are acked,
// which makes delivery order deterministic in tests.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	return createChannel(logger, gochannel.Config{
		OutputChannelBuffer:            10,
		Persistent:                     true,
		BlockPublishUntilSubscriberAck: true,
	})
}

func createChannel(logger watermill.LoggerAdapter, config gochannel.Config) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub, nil
}
