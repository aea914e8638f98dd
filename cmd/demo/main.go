package main

import (
	"context"
	"flag"

	"yt-notify/internal/channel"
	"yt-notify/pkg/logger"
)

func main() {
	name := flag.String("channel", "Imagine Dragons", "channel name")
	level := flag.String("log-level", "info", "log level (debug shows delivery details)")
	flag.Parse()

	log := logger.NewConsole(*level)
	defer func() { _ = log.Sync() }()

	run(context.Background(), *name, log)
}

// run subscribes five fans, publishes three times and lets the haters leave in between
func run(ctx context.Context, name string, log *logger.Logger) {
	ch := channel.New(name, channel.WithLogger(log))

	hater := channel.NewConsole("Jacke(hater)", log)
	anotherHater := channel.NewConsole("Alexa(hater)", log)
	subscribers := []*channel.Console{
		hater,
		channel.NewConsole("Bob", log),
		anotherHater,
		channel.NewConsole("Jack", log),
		channel.NewConsole("Tim", log),
	}

	for _, s := range subscribers {
		ch.Add(s)
	}
	ch.PublishVideo(ctx)

	hater.Unsubscribe()
	ch.PublishVideo(ctx)

	anotherHater.Unsubscribe()
	ch.PublishPhoto(ctx)
}
