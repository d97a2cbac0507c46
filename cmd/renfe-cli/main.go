package main

import (
	"context"

	"renfe-backend/cmd/renfe-cli/commands"
	"renfe-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "renfe-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
