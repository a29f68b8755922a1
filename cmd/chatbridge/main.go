package main

import (
	"os"

	"chatbridge/internal/app"
)

// @title           chatbridge API
// @version         1.0
// @description     Settings and job control for the LibreChat to Open WebUI migration tools.
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
