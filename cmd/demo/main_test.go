package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yt-notify/pkg/logger"
)

func TestRun_Transcript(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	run(context.Background(), "Imagine Dragons", logger.FromZap(zap.New(core)))

	var received []string
	for _, entry := range logs.All() {
		if entry.ContextMap()["channel"] == nil {
			received = append(received, entry.Message)
		}
	}

	assert.Equal(t, []string{
		"Jacke(hater) receive notification about new content: 'Cool clip №0 with <3'",
		"Bob receive notification about new content: 'Cool clip №0 with <3'",
		"Alexa(hater) receive notification about new content: 'Cool clip №0 with <3'",
		"Jack receive notification about new content: 'Cool clip №0 with <3'",
		"Tim receive notification about new content: 'Cool clip №0 with <3'",
		"Bob receive notification about new content: 'Cool clip №1 with <3'",
		"Alexa(hater) receive notification about new content: 'Cool clip №1 with <3'",
		"Jack receive notification about new content: 'Cool clip №1 with <3'",
		"Tim receive notification about new content: 'Cool clip №1 with <3'",
		"Bob receive notification about new content: 'Funny photo №2'",
		"Jack receive notification about new content: 'Funny photo №2'",
		"Tim receive notification about new content: 'Funny photo №2'",
	}, received)

	assert.Zero(t, logs.FilterMessage("Notification delivered").Len(), "deliveries are not echoed at info level")
	assert.Equal(t, 5, logs.FilterMessage("Subscriber has been subscribed to the channel").Len())
	assert.Equal(t, 3, logs.FilterMessage("Hey fans, there is new content").Len())
}
