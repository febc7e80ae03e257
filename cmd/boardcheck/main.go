package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/Cheese-Board3D/internal/boardclient"
	"github.com/park285/Cheese-Board3D/pkg/boarddto"
)

func main() {
	baseURL := os.Getenv("BOARD_BASE_URL")
	wsURL := os.Getenv("BOARD_WS_URL")
	if baseURL == "" {
		log.Fatal("BOARD_BASE_URL is required")
	}

	client := boardclient.New(baseURL, boardclient.WithTimeout(8*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if h, err := client.Health(ctx); err != nil {
		log.Printf("/healthz error: %v", err)
	} else {
		log.Printf("/healthz ok: status=%s seq=%d", h.Status, h.Seq)
	}
	if f, err := client.State(ctx); err != nil {
		log.Printf("/state error: %v", err)
	} else {
		log.Printf("/state ok: turn=%s pieces=%d checkmate=%v fen=%s", f.Turn, len(f.Pieces), f.Checkmate, f.FEN)
	}

	if wsURL == "" {
		log.Println("BOARD_WS_URL not set; skipping WS check")
		return
	}

	stream := boardclient.NewStream(wsURL, 5, nil)
	stream.OnMessage(func(msg *boarddto.ServerMessage) {
		switch {
		case msg.Frame != nil:
			fmt.Printf("WS frame seq=%d turn=%s animating=%v highlighted=%d\n", msg.Frame.Seq, msg.Frame.Turn, msg.Frame.Animating, msg.Frame.Highlighted)
		case msg.Error != nil:
			fmt.Printf("WS error code=%s msg=%q\n", msg.Error.Code, msg.Error.Message)
		default:
			fmt.Printf("WS %s outcome=%s\n", msg.Type, msg.Outcome)
		}
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := stream.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}
	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = stream.Close(context.Background())
}
