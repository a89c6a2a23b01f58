package main

import "companion-booking-backend/internal/cli"

func main() {
	cli.Execute()
}
