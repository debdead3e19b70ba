// Command airwatch-render draws the simulated air quality scenario to PNG
// files without starting the server.
package main

func main() {
	Execute()
}
