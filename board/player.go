/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"fmt"
	"math"
	"strconv"
)

// Color is an HSL color with every component in [0, 1].
type Color struct {
	Hue        float64
	Saturation float64
	Lightness  float64
}

// playerColor spreads player colors evenly around the color wheel.
func playerColor(index, count int) Color {
	return Color{
		Hue:        float64(index+1) / float64(count),
		Saturation: 1,
		Lightness:  0.5,
	}
}

// String formats the color as a CSS hsl() value.
func (c Color) String() string {
	return fmt.Sprintf("hsl(%.0f, %.0f%%, %.0f%%)", c.Hue*360, c.Saturation*100, c.Lightness*100)
}

// Hex formats the color as a CSS #rrggbb value.
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RGB converts the color to 8-bit red, green and blue channels.
func (c Color) RGB() (uint8, uint8, uint8) {
	if c.Saturation == 0 {
		v := channel(c.Lightness)
		return v, v, v
	}

	var q float64
	if c.Lightness < 0.5 {
		q = c.Lightness * (1 + c.Saturation)
	} else {
		q = c.Lightness + c.Saturation - c.Lightness*c.Saturation
	}
	p := 2*c.Lightness - q

	return channel(hueToRGB(p, q, c.Hue+1.0/3)),
		channel(hueToRGB(p, q, c.Hue)),
		channel(hueToRGB(p, q, c.Hue-1.0/3))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Player takes turns claiming nodes.
type Player struct {
	index int
	name  string
	color Color
}

func newPlayer(index, count int) *Player {
	return &Player{
		index: index,
		name:  defaultName(index),
		color: playerColor(index, count),
	}
}

func defaultName(index int) string {
	return "Player" + strconv.Itoa(index+1)
}

func (p *Player) Index() int   { return p.index }
func (p *Player) Name() string { return p.name }
func (p *Player) Color() Color { return p.color }
