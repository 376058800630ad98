package main

import "github.com/bazaar-market/apiserver/cmd"

func main() {
	cmd.Execute()
}
