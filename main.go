package main

import "github.com/klytics/sheetcheck/cmd"

func main() {
	cmd.Execute()
}
