package models

import (
	"strconv"
	"strings"
)

// Color is a Pebble ARGB8 colour: two bits each of alpha, red, green, blue
type Color uint8

// Colours referenced by corrections
const (
	ColorBlack    Color = 0b11000000
	ColorDukeBlue Color = 0b11000010
	ColorBlue     Color = 0b11000011
	ColorGreen    Color = 0b11001100
	ColorRed      Color = 0b11110000
	ColorOrange   Color = 0b11110100
	ColorLimerick Color = 0b11101000
	ColorYellow   Color = 0b11111100
	ColorWhite    Color = 0b11111111
)

// ColorFromHex quantises an "rrggbb" string to the watch palette.
// Anything unparseable is black.
func ColorFromHex(hex string) Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return ColorBlack
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ColorBlack
	}
	r := uint8(v>>16) >> 6
	g := uint8(v>>8) >> 6
	b := uint8(v) >> 6
	return Color(0b11<<6 | r<<4 | g<<2 | b)
}
