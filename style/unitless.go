package style

// unitless lists properties whose numeric values must not get px appended.
var unitless = map[string]bool{
	"animationIterationCount": true,
	"aspectRatio":             true,
	"borderImageOutset":       true,
	"borderImageSlice":        true,
	"borderImageWidth":        true,
	"boxFlex":                 true,
	"boxFlexGroup":            true,
	"boxOrdinalGroup":         true,
	"columnCount":             true,
	"columns":                 true,
	"flex":                    true,
	"flexGrow":                true,
	"flexPositive":            true,
	"flexShrink":              true,
	"flexNegative":            true,
	"flexOrder":               true,
	"gridRow":                 true,
	"gridRowEnd":              true,
	"gridRowSpan":             true,
	"gridRowStart":            true,
	"gridColumn":              true,
	"gridColumnEnd":           true,
	"gridColumnSpan":          true,
	"gridColumnStart":         true,
	"msGridRow":               true,
	"msGridRowSpan":           true,
	"msGridColumn":            true,
	"msGridColumnSpan":        true,
	"fontWeight":              true,
	"lineHeight":              true,
	"opacity":                 true,
	"order":                   true,
	"orphans":                 true,
	"scale":                   true,
	"tabSize":                 true,
	"widows":                  true,
	"zIndex":                  true,
	"zoom":                    true,
	"WebkitLineClamp":         true,
	"fillOpacity":             true,
	"floodOpacity":            true,
	"stopOpacity":             true,
	"strokeDasharray":         true,
	"strokeDashoffset":        true,
	"strokeMiterlimit":        true,
	"strokeOpacity":           true,
	"strokeWidth":             true,
}

// Unitless reports whether numeric values of property are emitted as is.
func Unitless(property string) bool {
	return unitless[property]
}
