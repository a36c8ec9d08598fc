package main

import "github.com/inovacc/reposync/cmd"

func main() {
	cmd.Execute()
}
