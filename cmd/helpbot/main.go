package main

import (
	"log"

	corecmd "github.com/sylni/helpbot/core/cmd"
	"github.com/sylni/helpbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("helpbot: %v", err)
	}
}
