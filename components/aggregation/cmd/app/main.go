package main

import "github.com/lumenfund/pledgeflow/components/aggregation/internal/bootstrap"

func main() {
	bootstrap.Init().Run()
}
