package main

import "github.com/lumenfund/pledgeflow/components/notifier/internal/bootstrap"

func main() {
	bootstrap.Init().Run()
}
