package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"pairfocus/internal/client"
	"pairfocus/internal/config"
	"pairfocus/internal/model"
)

// consoleEvents bridges synchronizer callbacks onto channels the main loop
// selects on.
type consoleEvents struct {
	started   chan countdown
	cancelled chan string
	lost      chan struct{}
}

type countdown struct {
	total     time.Duration
	remaining time.Duration
}

func (e *consoleEvents) CountdownStarted(total, remaining time.Duration) {
	e.started <- countdown{total: total, remaining: remaining}
}

func (e *consoleEvents) PartnerCancelled(userID string) {
	e.cancelled <- userID
}

func (e *consoleEvents) RoomLost() {
	e.lost <- struct{}{}
}

func (e *consoleEvents) SyncError(err error) {
	log.Printf("sync error (will keep polling): %v", err)
}

func main() {
	cfg := config.Load()

	serverURL := flag.String("server", cfg.ServerURL, "coordinator base URL")
	roomName := flag.String("room", "", "room name to join (required)")
	minutes := flag.Int("minutes", 25, "requested session length in minutes")
	flag.Parse()

	if *roomName == "" {
		fmt.Fprintln(os.Stderr, "usage: client -room NAME [-server URL] [-minutes N]")
		os.Exit(2)
	}

	events := &consoleEvents{
		started:   make(chan countdown, 1),
		cancelled: make(chan string, 1),
		lost:      make(chan struct{}, 1),
	}

	api := client.New(*serverURL)
	syncer := client.NewSynchronizer(api, events, clockwork.NewRealClock())

	snap, err := syncer.Connect(*roomName)
	if err == client.ErrRoomFull {
		log.Fatalf("Room %q is full", *roomName)
	}
	if err != nil {
		log.Fatalf("Failed to join room: %v", err)
	}
	defer syncer.Disconnect()

	fmt.Printf("Joined room %q as %s (%d/%d participants)\n",
		*roomName, syncer.UserID(), len(snap.Users), model.MaxRoomUsers)

	if err := syncer.RequestStart(time.Duration(*minutes) * time.Minute); err != nil {
		log.Fatalf("Failed to request start: %v", err)
	}
	fmt.Println("Ready. Waiting for partner to start...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var deadline time.Time
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case c := <-events.started:
			deadline = time.Now().Add(c.remaining)
			fmt.Printf("Session running: %s total, %s remaining\n",
				c.total.Round(time.Second), c.remaining.Round(time.Second))

		case by := <-events.cancelled:
			fmt.Printf("\nPartner %s cancelled the session\n", by)
			return

		case <-events.lost:
			fmt.Println("\nRoom no longer exists on the server; session ended")
			return

		case <-ticker.C:
			if deadline.IsZero() {
				continue
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				fmt.Println("\nSession complete")
				return
			}
			fmt.Printf("\r%-20s", remaining.Round(time.Second))

		case <-quit:
			fmt.Println("\nCancelling session...")
			syncer.Cancel()
			return
		}
	}
}
