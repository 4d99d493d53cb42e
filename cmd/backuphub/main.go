// filepath: cmd/backuphub/main.go
package main

import "backuphub/internal/cli"

func main() {
	// Delegate all execution to the CLI package
	cli.Execute()
}
