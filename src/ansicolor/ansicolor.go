// Package ansicolor holds the terminal escape codes used by the pretty log
// writer. On Windows, and when NO_COLOR is set, every code is empty.
package ansicolor

import (
	"os"
	"runtime"
)

var Reset = "\033[0m"
var Bold = "\033[1m"
var Faint = "\033[2m"

var Red = "\033[31m"
var Green = "\033[32m"
var Yellow = "\033[33m"
var Blue = "\033[34m"
var Gray = "\033[37m"

var BgRed = "\033[41m"
var BgYellow = "\033[43m"
var BgBlue = "\033[44m"

func init() {
	if runtime.GOOS == "windows" || os.Getenv("NO_COLOR") != "" {
		Disable()
	}
}

func Disable() {
	for _, code := range []*string{
		&Reset, &Bold, &Faint,
		&Red, &Green, &Yellow, &Blue, &Gray,
		&BgRed, &BgYellow, &BgBlue,
	} {
		*code = ""
	}
}
