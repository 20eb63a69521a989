package main

import "github.com/adamSellers/oakley-bookings/cmd"

func main() {
	cmd.Execute()
}
