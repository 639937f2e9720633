package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	var cfgPath string
	var root = &cobra.Command{
		Use:          "searchchat",
		Short:        "Chat with a hosted model that can search the web and cite its sources",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(chatCMD(&cfgPath), serveCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
