package main

import "github.com/MeKo-Tech/folio/cmd/folio/cmd"

func main() {
	cmd.Execute()
}
