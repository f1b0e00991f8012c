package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Tomlord1122/family-todo/internal/config"
	"github.com/Tomlord1122/family-todo/internal/database"
	"github.com/Tomlord1122/family-todo/internal/service"
)

// Services bundles what the handlers call into.
type Services struct {
	Auth     service.AuthService
	Families service.FamilyService
	Invites  service.InviteService
	Todos    service.TodoService
}

type Server struct {
	port        int
	corsOrigins []string

	auth     service.AuthService
	families service.FamilyService
	invites  service.InviteService
	todos    service.TodoService
	db       database.Service
}

func NewServer(cfg *config.Config, svcs Services, dbService database.Service) *http.Server {
	appServer := &Server{
		port:        cfg.Port,
		corsOrigins: cfg.CORSAllowedOrigins,
		auth:        svcs.Auth,
		families:    svcs.Families,
		invites:     svcs.Invites,
		todos:       svcs.Todos,
		db:          dbService,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
