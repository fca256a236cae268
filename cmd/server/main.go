package main

import "github.com/beemailley/final-project-backend-bm/cmd/server/cmd"

func main() {
	cmd.Execute()
}
