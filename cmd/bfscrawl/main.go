// Command bfscrawl crawls a site breadth-first from a seed URL.
package main

func main() {
	Execute()
}
