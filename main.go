package main

import "vault-inventory/cmd"

func main() {
	cmd.Execute()
}
