package main

import (
	cinevault "github.com/cinevault/cinevault/app"
)

func main() {
	app := cinevault.New(nil, nil)
	app.Start()
}
