package main

import "github.com/lumenfund/pledgeflow/components/donations/internal/bootstrap"

func main() {
	bootstrap.Init().Run()
}
