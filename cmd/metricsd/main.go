// metricsd CLI - Command-line interface for the metricsd metrics generator
package main

import "github.com/getmockd/metricsd/pkg/cli"

func main() {
	cli.Execute()
}
