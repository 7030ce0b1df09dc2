package main

import "github.com/andresmejia3/backbeat/cmd"

func main() {
	cmd.Execute()
}
