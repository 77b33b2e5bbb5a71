// Simbackend - development stand-in for the eye-tracker backend
//
// Serves the control channel over WebSocket, streams a video file or webcam
// as RTP/JPEG to the requested receiver, and synthesizes a wandering gaze
// signal with periodic blink dropouts. Lets gazeviewer and gazeguard run
// with no tracker hardware attached.
package main

import (
	"flag"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/oculon/gazeguard/internal/config"
	"github.com/oculon/gazeguard/internal/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Local development tool; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	listen := flag.String("listen", ":11032", "Control-channel listen address")
	source := flag.String("source", "", "Video source: file path or camera index (default camera 0)")
	fps := flag.Int("fps", 30, "Video stream frame rate")
	flag.Parse()

	log.Init(config.LogLevel())

	http.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("simbackend: upgrade failed", "err", err)
			return
		}
		s := newSession(conn, *source, *fps)
		go s.run()
	})

	log.Info("simbackend: listening", "addr", *listen, "source", *source, "fps", *fps)
	if err := http.ListenAndServe(*listen, nil); err != nil {
		log.Error("simbackend: server failed", "err", err)
	}
}
