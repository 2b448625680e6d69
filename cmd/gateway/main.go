package main

import "github.com/akramahmed1/quantenergx-gateway/server"

func main() {
	server.Main()
}
