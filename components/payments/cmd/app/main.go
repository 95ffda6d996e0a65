package main

import "github.com/lumenfund/pledgeflow/components/payments/internal/bootstrap"

func main() {
	bootstrap.Init().Run()
}
