// Command boardsnap writes a PNG of a position, either decoded from a FEN or
// fetched from a running host.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/park285/Cheese-Board3D/internal/boardbuilder"
	"github.com/park285/Cheese-Board3D/internal/boardclient"
	appcfg "github.com/park285/Cheese-Board3D/internal/config"
	"github.com/park285/Cheese-Board3D/internal/rules"
	"github.com/park285/Cheese-Board3D/internal/snapshot"
)

func main() {
	fen := flag.String("fen", "", "position to render (default: configured start FEN)")
	remote := flag.String("remote", "", "base URL of a running host, e.g. http://localhost:8080")
	out := flag.String("o", "board.png", "output file")
	highlight := flag.String("highlight", "", "square to highlight, e.g. e4")
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	m, err := boardbuilder.Mapper(cfg)
	if err != nil {
		log.Fatalf("mapper error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var scene snapshot.Scene
	if *remote != "" {
		f, err := boardclient.New(*remote, boardclient.WithTimeout(8*time.Second)).State(ctx)
		if err != nil {
			log.Fatalf("fetch state: %v", err)
		}
		scene = snapshot.FromFrame(*f, m)
	} else {
		pos := *fen
		if pos == "" {
			pos = cfg.StartFEN
		}
		layout, err := rules.LayoutFromFEN(pos, m)
		if err != nil {
			log.Fatalf("fen error: %v", err)
		}
		if scene, err = snapshot.FromLayout(layout, m); err != nil {
			log.Fatalf("layout error: %v", err)
		}
	}
	if *highlight != "" {
		scene.Highlighted = *highlight
	}

	data, err := snapshot.New(cfg.SnapshotSize, cfg.HighlightColor).RenderPNG(ctx, scene)
	if err != nil {
		log.Fatalf("render error: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	log.Printf("wrote %s (%d bytes, %d pieces)", *out, len(data), len(scene.Pieces))
}
