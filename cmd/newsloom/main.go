package main

import (
	"newsloom/cmd/cmd"
	"newsloom/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
