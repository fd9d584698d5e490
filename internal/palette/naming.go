package palette

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Describe returns a coarse human name for a color based on its HSV value.
func Describe(c RGB) string {
	cf, _ := colorful.MakeColor(color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	h, s, v := cf.Hsv()

	switch {
	case v < 0.2:
		return "Black/Dark Gray"
	case s < 0.1:
		if v > 0.9 {
			return "White"
		} else if v > 0.5 {
			return "Light Gray"
		}
		return "Gray"
	case h < 30:
		return "Red/Orange"
	case h < 60:
		if s > 0.5 && v > 0.7 {
			return "Golden/Amber"
		}
		return "Yellow/Gold"
	case h < 90:
		return "Yellow"
	case h < 150:
		return "Green"
	case h < 210:
		return "Cyan/Blue"
	case h < 270:
		if v < 0.5 {
			return "Navy Blue"
		}
		return "Blue"
	case h < 330:
		return "Purple/Magenta"
	default:
		return "Red/Pink"
	}
}

// flutterNames maps Describe output to app_colors.dart field names.
var flutterNames = map[string]string{
	"Golden/Amber": "primary",
	"Yellow/Gold":  "secondary",
	"Navy Blue":    "navyBlue",
	"Red/Orange":   "accent",
	"Yellow":       "yellow",
	"Blue":         "blue",
	"Cyan/Blue":    "lightBlue",
}

// FlutterConstant renders a Dart color constant for the i-th (1-based)
// extracted color.
func FlutterConstant(index int, c RGB) string {
	name := Describe(c)
	field, ok := flutterNames[name]
	if !ok {
		field = fmt.Sprintf("color%d", index)
	}
	return fmt.Sprintf("static const Color %s = Color(0xFF%02X%02X%02X); // %s", field, c.R, c.G, c.B, name)
}
