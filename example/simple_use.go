package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/midiports/internal/logger"
	"github.com/leandrodaf/midiports/sdk/contracts"
	"github.com/leandrodaf/midiports/sdk/midi"
)

func main() {
	outPort := flag.Int("out", 0, "output slot that receives forwarded notes")
	backend := flag.String("backend", string(contracts.BackendNative), "native, rtmidi or loopback")
	interval := flag.Duration("tick", 16*time.Millisecond, "polling interval")
	debug := flag.Bool("debug", false, "log skipped ports and ignored messages")
	flag.Parse()

	log := logger.NewStandardLogger()
	level := contracts.InfoLevel
	if *debug {
		level = contracts.DebugLevel
	}

	reg, err := midi.NewRegistry(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithBackend(contracts.BackendKind(*backend)),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI registry", log.Field().Error("error", err))
		os.Exit(1)
	}
	defer reg.Close()

	reg.SetHandlers(contracts.Handlers{
		OnNoteOn: func(src contracts.PortInfo, ev contracts.NoteOn) {
			log.Info(fmt.Sprintf("%s [%d] On %d (%d)", src.Name, ev.Channel, ev.Note, ev.Velocity))
			if out, ok := reg.Output(*outPort); ok {
				if err := out.SendNoteOn(ev.Channel, ev.Note, ev.Velocity); err != nil {
					log.Warn("Failed to forward note on", log.Field().Error("error", err))
				}
			}
		},
		OnNoteOff: func(src contracts.PortInfo, ev contracts.NoteOff) {
			log.Info(fmt.Sprintf("%s [%d] Off %d", src.Name, ev.Channel, ev.Note))
			if out, ok := reg.Output(*outPort); ok {
				if err := out.SendNoteOff(ev.Channel, ev.Note); err != nil {
					log.Warn("Failed to forward note off", log.Field().Error("error", err))
				}
			}
		},
		OnControlChange: func(src contracts.PortInfo, ev contracts.ControlChange) {
			log.Info(fmt.Sprintf("%s [%d] CC %d (%d)", src.Name, ev.Channel, ev.Controller, ev.Value))
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Println("Watching MIDI ports... Press Ctrl+C to exit.")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Tick()
		}
	}
}
