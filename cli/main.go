package main

import "ocm.software/open-component-model/deobf/cli/cmd"

func main() {
	cmd.Execute()
}
