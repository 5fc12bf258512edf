package main

import (
	_ "flowfix/docs"
	"flowfix/internal/config"
	"flowfix/internal/logging"
	"flowfix/internal/server"
)

// @title           FlowFix API
// @version         1.0
// @description     Task management API: tasks, subtasks, activities, team members and notifications.

// @host      localhost:8800
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	log := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  cfg.GinMode == "release",
	})

	s, err := server.Init(cfg, log)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
