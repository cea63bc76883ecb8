package palette

import (
	"strings"

	"github.com/panel-configurator/backend/internal/models"
)

// ralClassic is the subset of RAL Classic offered for panel finishes.
var ralClassic = []models.RALColor{
	{Code: "RAL 1013", Hex: "#E3D9C6", Name: "Oyster white"},
	{Code: "RAL 1015", Hex: "#E6D2B5", Name: "Light ivory"},
	{Code: "RAL 1019", Hex: "#A48F7A", Name: "Grey beige"},
	{Code: "RAL 3004", Hex: "#6B1C23", Name: "Purple red"},
	{Code: "RAL 5004", Hex: "#1A1B2D", Name: "Black blue"},
	{Code: "RAL 5011", Hex: "#1A2B3C", Name: "Steel blue"},
	{Code: "RAL 6009", Hex: "#27352A", Name: "Fir green"},
	{Code: "RAL 7016", Hex: "#383E42", Name: "Anthracite grey"},
	{Code: "RAL 7021", Hex: "#2F3234", Name: "Black grey"},
	{Code: "RAL 7035", Hex: "#CBD0CC", Name: "Light grey"},
	{Code: "RAL 7037", Hex: "#7A7B7A", Name: "Dusty grey"},
	{Code: "RAL 7044", Hex: "#B8B799", Name: "Silk grey"},
	{Code: "RAL 8014", Hex: "#4A3526", Name: "Sepia brown"},
	{Code: "RAL 8017", Hex: "#44322D", Name: "Chocolate brown"},
	{Code: "RAL 9001", Hex: "#E9E0D2", Name: "Cream"},
	{Code: "RAL 9003", Hex: "#ECECE7", Name: "Signal white"},
	{Code: "RAL 9005", Hex: "#0E0E10", Name: "Jet black"},
	{Code: "RAL 9006", Hex: "#A1A1A0", Name: "White aluminium"},
	{Code: "RAL 9007", Hex: "#878581", Name: "Grey aluminium"},
	{Code: "RAL 9010", Hex: "#F1ECE1", Name: "Pure white"},
	{Code: "RAL 9016", Hex: "#F1F0EA", Name: "Traffic white"},
}

// RAL returns the RAL colour list.
func RAL() []models.RALColor {
	out := make([]models.RALColor, len(ralClassic))
	copy(out, ralClassic)
	return out
}

// LookupRAL finds a colour by code. "9016", "ral9016" and "RAL 9016" all match.
func LookupRAL(code string) (models.RALColor, bool) {
	want := normalizeRAL(code)
	for _, c := range ralClassic {
		if normalizeRAL(c.Code) == want {
			return c, true
		}
	}
	return models.RALColor{}, false
}

func normalizeRAL(code string) string {
	code = strings.ToUpper(strings.ReplaceAll(code, " ", ""))
	return strings.TrimPrefix(code, "RAL")
}
