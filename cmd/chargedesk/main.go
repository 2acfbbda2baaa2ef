package main

import "github.com/vietddude/chargedesk/internal/cli"

func main() {
	cli.Execute()
}
