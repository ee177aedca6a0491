package formatters

import "strings"

var (
	productLineNames   = map[string]string{"R": "Road", "M": "Mountain", "T": "Touring", "S": "Standard"}
	productClassNames  = map[string]string{"H": "High", "M": "Medium", "L": "Low"}
	productStyleNames  = map[string]string{"W": "Womens", "M": "Mens", "U": "Universal"}
	maritalStatusNames = map[string]string{"M": "Married", "S": "Single"}
	genderNames        = map[string]string{"M": "Male", "F": "Female"}
)

// expandCode renders a code with its meaning, "Married (M)".
// Unknown codes are returned unchanged.
func expandCode(names map[string]string, code string) string {
	if name, ok := names[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// codeName returns the meaning of a code, or the code itself when unknown.
func codeName(names map[string]string, code string) string {
	if name, ok := names[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}
