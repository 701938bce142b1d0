// Command cyberdeck tracks gigs, jobs and the time spent on them.
package main

import "github.com/cyberdeck-app/cyberdeck/cmd"

func main() {
	cmd.Execute()
}
