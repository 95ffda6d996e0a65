package main

import "github.com/lumenfund/pledgeflow/components/bank/internal/bootstrap"

func main() {
	bootstrap.Init().Run()
}
