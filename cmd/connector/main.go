// Package main implements the connector onboarding CLI.
// It provisions and tears down the GCP IAM resources a security connector
// needs to read an organization's infrastructure.
package main

import "github.com/kartallu/connector/cmd/connector/cmd"

func main() {
	cmd.Execute()
}
