package main

import "github.com/rickgao/partner-reports/cmd/partnersync/cmd"

func main() {
	cmd.Execute()
}
