package enum

import "encoding/json"

// SelectionStage is the position of a terminal in the product selection flow
type SelectionStage int

const (
	SelectionStageNoProduct     SelectionStage = 0
	SelectionStageProductChosen SelectionStage = 1
	SelectionStageFlavorChosen  SelectionStage = 2
	SelectionStageVariantChosen SelectionStage = 3
	SelectionStageReady         SelectionStage = 4
)

func (s SelectionStage) String() string {
	names := [...]string{"NoProduct", "ProductChosen", "FlavorChosen", "VariantChosen", "Ready"}
	if s < 0 || int(s) >= len(names) {
		return "Unknown"
	}
	return names[s]
}

func (s SelectionStage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
