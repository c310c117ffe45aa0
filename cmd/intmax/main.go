package main

import "github.com/bertankofon/intmax2-client-sdk/internal/cli"

func main() {
	cli.Execute()
}
