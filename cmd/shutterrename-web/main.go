package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/On-Jun9/ShutterRename/internal/web"
)

var (
	version = "dev" // set by ldflags during build
)

func main() {
	// .env may set SHUTTERRENAME_HOME
	_ = godotenv.Load()

	addr := flag.String("addr", "localhost:8080", "HTTP server address")
	flag.Parse()

	server := web.NewServer()
	server.SetVersion(version)

	if err := server.Start(*addr); err != nil {
		log.Fatal(err)
	}
}
