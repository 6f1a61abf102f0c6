package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/On-Jun9/ShutterRename/internal/pipeline"
)

type Server struct {
	router  *mux.Router
	hub     *Hub
	guard   pipeline.Guard
	version string
}

func NewServer() *Server {
	s := &Server{
		router:  mux.NewRouter(),
		hub:     NewHub(),
		version: "unknown",
	}

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
	api.HandleFunc("/browse", s.handleBrowse).Methods("GET")
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/tokens", s.handleTokens).Methods("GET")
	api.HandleFunc("/files", s.handleFiles).Methods("POST")
	api.HandleFunc("/rename", s.handleRename).Methods("POST")
	api.HandleFunc("/ws", s.handleWebSocket)

	// Preset routes
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleSavePreset).Methods("POST")
	api.HandleFunc("/presets", s.handleDeletePreset).Methods("DELETE")

	// UserData routes (settings, recent folders, rename history)
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleSaveSettings).Methods("POST")
	api.HandleFunc("/recent-dirs", s.handleGetRecentDirs).Methods("GET")
	api.HandleFunc("/history", s.handleGetHistory).Methods("GET")

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("web/static")))
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting ShutterRename Web UI at http://%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}
