// Command irrigate runs the irrigation controller on a Linux host, or the
// receiving gateway that stores and republishes its telemetry.
package main

func main() {
	Execute()
}
