package main

import (
	"calchat/core/logger"
	"calchat/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
