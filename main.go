package main

import (
	_ "git.inkwell.blog/inkwell/inkwell/src/admintools"
	_ "git.inkwell.blog/inkwell/inkwell/src/locals3"
	_ "git.inkwell.blog/inkwell/inkwell/src/migration"
	"git.inkwell.blog/inkwell/inkwell/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
