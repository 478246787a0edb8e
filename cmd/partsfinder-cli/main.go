package main

import (
	"fmt"
	"os"
	"partsfinder-backend/cmd/partsfinder-cli/cmd"
	"partsfinder-backend/pkg/configutil"
)

func main() {
	err := configutil.LoadDotEnv(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cmd.Execute()
}
