package schema

import "testing"

func TestCameraCatalogShape(t *testing.T) {
	catalog := CameraCatalog()
	if catalog.Len() != 20 {
		t.Fatalf("expected 20 camera attributes, got %d", catalog.Len())
	}

	names := catalog.Names()
	if names[0] != "Color" {
		t.Errorf("expected first attribute Color, got %s", names[0])
	}
	if names[len(names)-1] != "Autofocus System" {
		t.Errorf("expected last attribute Autofocus System, got %s", names[len(names)-1])
	}

	for _, want := range []string{"Sensor Type", "Lens Mount", "Memory Card Slot", "Video Capabilities"} {
		if !catalog.Has(want) {
			t.Errorf("catalog missing %q", want)
		}
	}
	if catalog.Has("Shoe Size") {
		t.Error("Has reported an attribute that is not in the catalog")
	}
}

func TestCatalogOrderIsStable(t *testing.T) {
	a := CameraCatalog().Names()
	b := CameraCatalog().Names()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("catalog order changed between calls at index %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestCatalogSpecsHaveCategories(t *testing.T) {
	for _, spec := range CameraCatalog().Specs() {
		switch spec.Category {
		case CategoryPhysical, CategoryTechnical, CategoryFeature, CategoryCapability:
		default:
			t.Errorf("attribute %s has unknown category %q", spec.Name, spec.Category)
		}
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		raw   string
		want  Confidence
		valid bool
	}{
		{"high", ConfidenceHigh, true},
		{"HIGH", ConfidenceHigh, true},
		{" Medium ", ConfidenceMedium, true},
		{"low", ConfidenceLow, true},
		{"very_high", ConfidenceMedium, false},
		{"", ConfidenceMedium, false},
		{"certain", ConfidenceMedium, false},
	}
	for _, tt := range tests {
		got, valid := NormalizeConfidence(tt.raw)
		if got != tt.want || valid != tt.valid {
			t.Errorf("NormalizeConfidence(%q) = (%q, %v), want (%q, %v)",
				tt.raw, got, valid, tt.want, tt.valid)
		}
	}
}
